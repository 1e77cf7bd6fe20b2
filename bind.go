package dotenv

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Azhovan/dotenv/internal/normalize"
)

// sourceDefault is the provenance source for values taken from a default tag.
const sourceDefault = "default"

// Binder projects a Reader onto a new *T. Fields are matched to keys by the
// SCREAMING_SNAKE_CASE form of their name (or an env:KEY tag override),
// case-insensitively. Unmatched fields keep their zero value or tag default.
type Binder[T any] struct {
	validators []Validator[T]
	strict     bool // Fail on reader keys no field consumed (default: false)
}

// NewBinder creates a Binder with no validators and strict mode disabled.
func NewBinder[T any]() *Binder[T] {
	return &Binder[T]{
		validators: make([]Validator[T], 0),
	}
}

// WithValidator adds a custom validator (executed after tag-based validation).
func (b *Binder[T]) WithValidator(v Validator[T]) *Binder[T] {
	b.validators = append(b.validators, v)
	return b
}

// Strict controls whether reader keys that match no field cause errors.
// Default: false. Avoid with process-environment sources, which bring in
// every variable of the process.
func (b *Binder[T]) Strict(strict bool) *Binder[T] {
	b.strict = strict
	return b
}

// Bind creates a new *T and populates it from r.
// Conversion failures return *BindingError (first failing field in
// declaration order); constraint failures return *ValidationError.
func (b *Binder[T]) Bind(ctx context.Context, r *Reader) (*T, error) {
	if r == nil {
		return nil, configError("Bind", "reader", "must not be nil")
	}
	if t := reflect.TypeOf((*T)(nil)).Elem(); t.Kind() != reflect.Struct {
		return nil, configError("Bind", "T", fmt.Sprintf("must be a struct type, got %s", t))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := new(T)
	cfgValue := reflect.ValueOf(cfg).Elem()

	state := &bindState{reader: r, used: make(map[string]bool)}
	if err := state.bindStruct(cfgValue, "", ""); err != nil {
		return nil, err
	}

	var allErrors []FieldError
	if b.strict {
		r.Each(func(key, _ string) bool {
			if !state.used[key] {
				allErrors = append(allErrors, FieldError{
					FieldPath: key,
					Code:      ErrCodeUnknownKey,
					Message:   "no settings field matches this key (strict mode)",
				})
			}
			return true
		})
	}

	allErrors = append(allErrors, validateStruct(cfgValue)...)

	for i, validator := range b.validators {
		if err := validator.Validate(ctx, cfg); err != nil {
			if valErr, ok := err.(*ValidationError); ok {
				allErrors = append(allErrors, valErr.FieldErrors...)
				continue
			}
			return nil, fmt.Errorf("validator %d failed: %w", i, err)
		}
	}

	if len(allErrors) > 0 {
		return nil, &ValidationError{FieldErrors: allErrors}
	}

	storeProvenance(cfg, &Provenance{Fields: state.fields})

	return cfg, nil
}

// Bind populates a new *T from r with default Binder settings.
func Bind[T any](r *Reader) (*T, error) {
	return NewBinder[T]().Bind(context.Background(), r)
}

// bindState carries a single Bind call's reader, consumed keys and provenance.
type bindState struct {
	reader *Reader
	used   map[string]bool
	fields []FieldProvenance
}

// bindStruct binds the exported fields of v, recursing into nested structs.
// Field paths are joined with fieldPrefix, keys with keyPrefix.
func (s *bindState) bindStruct(v reflect.Value, fieldPrefix, keyPrefix string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)

		if !field.IsExported() || !fv.CanSet() {
			continue
		}

		tagCfg := parseTag(field.Tag.Get("conf"))
		if tagCfg.skip {
			continue
		}

		fieldPath := field.Name
		if fieldPrefix != "" {
			fieldPath = fieldPrefix + "." + field.Name
		}

		if isNestedStruct(field.Type) {
			if err := s.bindStruct(fv, fieldPath, nestedKeyPrefix(field.Name, tagCfg, keyPrefix)); err != nil {
				return err
			}
			continue
		}

		// A *struct is allocated only when the reader supplies at least one
		// of its keys; defaults alone leave it nil.
		if isNestedStructPtr(field.Type) {
			nested := reflect.New(field.Type.Elem())
			before := len(s.fields)
			if err := s.bindStruct(nested.Elem(), fieldPath, nestedKeyPrefix(field.Name, tagCfg, keyPrefix)); err != nil {
				return err
			}
			if s.boundFromReader(before) {
				fv.Set(nested)
			} else {
				s.fields = s.fields[:before]
			}
			continue
		}

		candidates := keyCandidates(field.Name, tagCfg, keyPrefix)

		key, raw, found := s.find(candidates)
		sourceName := s.reader.Source(key)
		if !found {
			if !tagCfg.hasDefault {
				continue
			}
			key, raw, sourceName = "", tagCfg.defValue, sourceDefault
		}

		target := fv
		optional := isOptionalType(field.Type)
		if optional {
			target = fv.Field(0)
		}

		if err := setValue(target, raw); err != nil {
			return &BindingError{
				Field: fieldPath,
				Key:   key,
				Value: raw,
				Type:  target.Type().String(),
				Err:   err,
			}
		}
		if optional {
			fv.Field(1).SetBool(true)
		}

		keyPath := key
		if keyPath == "" {
			keyPath = candidates[0]
		}
		s.fields = append(s.fields, FieldProvenance{
			FieldPath:  fieldPath,
			KeyPath:    keyPath,
			SourceName: sourceName,
			Secret:     tagCfg.secret,
		})
	}

	return nil
}

// find returns the first candidate present in the reader.
func (s *bindState) find(candidates []string) (string, string, bool) {
	for _, c := range candidates {
		if key, value, ok := s.reader.lookupFold(c); ok {
			s.used[key] = true
			return key, value, true
		}
	}
	return "", "", false
}

// boundFromReader reports whether any field recorded after index from came
// from the reader rather than a tag default.
func (s *bindState) boundFromReader(from int) bool {
	for _, f := range s.fields[from:] {
		if f.SourceName != sourceDefault {
			return true
		}
	}
	return false
}

// nestedKeyPrefix returns the key prefix for a nested struct field: the
// prefix directive when present, otherwise the parent prefix joined with
// the field's SCREAMING_SNAKE_CASE name.
func nestedKeyPrefix(fieldName string, tagCfg tagConfig, keyPrefix string) string {
	if tagCfg.prefix != "" {
		return tagCfg.prefix
	}
	return normalize.ApplyPrefix(keyPrefix, normalize.ToScreamingSnake(fieldName))
}

// keyCandidates lists the keys a field may be loaded from, canonical first:
// the env tag verbatim, or the SCREAMING_SNAKE_CASE name followed by the
// plain upper-cased name.
func keyCandidates(fieldName string, tagCfg tagConfig, keyPrefix string) []string {
	if tagCfg.env != "" {
		return []string{tagCfg.env}
	}

	snake := normalize.ApplyPrefix(keyPrefix, normalize.ToScreamingSnake(fieldName))
	upper := normalize.ApplyPrefix(keyPrefix, strings.ToUpper(fieldName))
	if upper == snake {
		return []string{snake}
	}
	return []string{snake, upper}
}

var optionalPkgPath = reflect.TypeOf(Optional[int]{}).PkgPath()

// isOptionalType reports whether t is an instantiation of Optional[T].
func isOptionalType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct &&
		t.PkgPath() == optionalPkgPath &&
		strings.HasPrefix(t.Name(), "Optional[") &&
		t.NumField() == 2
}

// isNestedStruct reports whether t is a struct bound field by field, as
// opposed to a struct decoded from one value (time.Time, Optional[T], any
// encoding.TextUnmarshaler).
func isNestedStruct(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	if isOptionalType(t) {
		return false
	}
	return !reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// isNestedStructPtr reports whether t is a pointer to a struct bound field by
// field.
func isNestedStructPtr(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr && isNestedStruct(t.Elem())
}
