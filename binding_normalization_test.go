package dotenv

import (
	"reflect"
	"testing"
)

func TestBind_FieldNameNormalization(t *testing.T) {
	type SettingsProduction struct {
		ProdEnv          string
		ProdEnvProd      string
		ProdEnvProdLocal string
		ProdEnvLocal     string
	}

	r := readerOf(
		"PROD_ENV", "1",
		"PROD_ENV_PROD", "2",
		"PROD_ENV_LOCAL", "3",
		"PROD_ENV_PROD_LOCAL", "4",
	)

	settings, err := Bind[SettingsProduction](r)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	want := SettingsProduction{ProdEnv: "1", ProdEnvProd: "2", ProdEnvProdLocal: "4", ProdEnvLocal: "3"}
	if *settings != want {
		t.Errorf("Bind() = %+v, want %+v", *settings, want)
	}
}

func TestBind_CaseInsensitiveKeys(t *testing.T) {
	type Settings struct {
		Summaries string
		APIKey    string
	}

	settings, err := Bind[Settings](readerOf("summaries", "lower", "api_key", "k"))
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if settings.Summaries != "lower" {
		t.Errorf("Summaries = %q, want %q", settings.Summaries, "lower")
	}
	if settings.APIKey != "k" {
		t.Errorf("APIKey = %q, want %q", settings.APIKey, "k")
	}
}

func TestBind_CaseInsensitiveTieBreak(t *testing.T) {
	type Settings struct {
		Summaries string
	}

	tests := []struct {
		name  string
		pairs []string
		want  string
	}{
		{
			name:  "exact canonical match wins over earlier variant",
			pairs: []string{"summaries", "first", "SUMMARIES", "exact"},
			want:  "exact",
		},
		{
			name:  "earliest variant wins without exact match",
			pairs: []string{"Summaries", "first", "summaries", "second"},
			want:  "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := Bind[Settings](readerOf(tt.pairs...))
			if err != nil {
				t.Fatalf("Bind() error = %v", err)
			}
			if settings.Summaries != tt.want {
				t.Errorf("Summaries = %q, want %q", settings.Summaries, tt.want)
			}
		})
	}
}

func TestBind_PlainUpperCaseFallback(t *testing.T) {
	type Settings struct {
		DatabaseURL string
	}

	settings, err := Bind[Settings](readerOf("DATABASEURL", "postgres://"))
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if settings.DatabaseURL != "postgres://" {
		t.Errorf("DatabaseURL = %q, want %q", settings.DatabaseURL, "postgres://")
	}

	settings, err = Bind[Settings](readerOf("DATABASEURL", "fallback", "DATABASE_URL", "canonical"))
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if settings.DatabaseURL != "canonical" {
		t.Errorf("DatabaseURL = %q, want canonical key to win", settings.DatabaseURL)
	}
}

func TestKeyCandidates(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		tag       string
		prefix    string
		want      []string
	}{
		{"single word", "Summaries", "", "", []string{"SUMMARIES"}},
		{"multi word", "ProdEnvLocal", "", "", []string{"PROD_ENV_LOCAL", "PRODENVLOCAL"}},
		{"acronym", "APIKey", "", "", []string{"API_KEY", "APIKEY"}},
		{"with prefix", "Host", "", "DATABASE", []string{"DATABASE_HOST"}},
		{"env override ignores prefix", "Host", "env:PGHOST", "DATABASE", []string{"PGHOST"}},
		{"env override verbatim", "Host", "env:pg.host", "", []string{"pg.host"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keyCandidates(tt.fieldName, parseTag(tt.tag), tt.prefix)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("keyCandidates(%q, %q, %q) = %q, want %q", tt.fieldName, tt.tag, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestIsOptionalAndNestedTypes(t *testing.T) {
	type inner struct{ A int }

	tests := []struct {
		name         string
		typ          reflect.Type
		wantOptional bool
		wantNested   bool
	}{
		{"optional int", reflect.TypeOf(Optional[int]{}), true, false},
		{"optional string", reflect.TypeOf(Optional[string]{}), true, false},
		{"plain struct", reflect.TypeOf(inner{}), false, true},
		{"text unmarshaler struct", reflect.TypeOf(levelHolder{}), false, false},
		{"string", reflect.TypeOf(""), false, false},
		{"lookalike", reflect.TypeOf(struct {
			Value int
			Set   bool
		}{}), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOptionalType(tt.typ); got != tt.wantOptional {
				t.Errorf("isOptionalType(%s) = %v, want %v", tt.typ, got, tt.wantOptional)
			}
			if got := isNestedStruct(tt.typ); got != tt.wantNested {
				t.Errorf("isNestedStruct(%s) = %v, want %v", tt.typ, got, tt.wantNested)
			}
		})
	}
}

// levelHolder is a struct decoded from a single value.
type levelHolder struct {
	level level
}

func (h *levelHolder) UnmarshalText(text []byte) error {
	return h.level.UnmarshalText(text)
}
