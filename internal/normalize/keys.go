package normalize

import (
	"strings"
	"unicode"
)

// ToScreamingSnake converts a Go field name to the SCREAMING_SNAKE_CASE key
// it is conventionally loaded from.
// Examples:
//   - "Summaries" → "SUMMARIES"
//   - "ProdEnvProdLocal" → "PROD_ENV_PROD_LOCAL"
//   - "APIKey" → "API_KEY"
//   - "Port8080" → "PORT8080"
func ToScreamingSnake(name string) string {
	if name == "" {
		return ""
	}

	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			switch {
			case unicode.IsLower(prev) || unicode.IsDigit(prev):
				b.WriteByte('_')
			case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				// End of an acronym: "APIKey" splits before "Key".
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}

	return b.String()
}

// ApplyPrefix joins a key prefix and a key with a single underscore.
// If prefix is empty, returns the key unchanged.
// Examples:
//   - ApplyPrefix("DATABASE", "HOST") → "DATABASE_HOST"
//   - ApplyPrefix("DB_", "HOST") → "DB_HOST"
//   - ApplyPrefix("", "HOST") → "HOST"
func ApplyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return strings.TrimSuffix(prefix, "_")
	}
	return strings.TrimSuffix(prefix, "_") + "_" + key
}

// Fold returns the case-insensitive comparison form of a key.
func Fold(key string) string {
	return strings.ToUpper(key)
}
