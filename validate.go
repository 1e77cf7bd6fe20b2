package dotenv

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// validateStruct walks bound settings and checks each field against its
// `conf` tag constraints (required, min, max, oneof), recursing into nested
// structs. It returns every failure rather than stopping at the first.
func validateStruct(cfg reflect.Value) []FieldError {
	return validateStructRecursive(cfg, "")
}

// validateStructRecursive validates the fields of cfg, prefixing field paths
// with parentFieldPath. Nil pointers and non-struct values yield no errors.
func validateStructRecursive(cfg reflect.Value, parentFieldPath string) []FieldError {
	var fieldErrors []FieldError

	if cfg.Kind() == reflect.Ptr {
		if cfg.IsNil() {
			return fieldErrors
		}
		cfg = cfg.Elem()
	}
	if cfg.Kind() != reflect.Struct {
		return fieldErrors
	}

	cfgType := cfg.Type()
	for i := 0; i < cfg.NumField(); i++ {
		field := cfgType.Field(i)
		fieldValue := cfg.Field(i)

		if !field.IsExported() {
			continue
		}

		tagCfg := parseTag(field.Tag.Get("conf"))
		if tagCfg.skip {
			continue
		}

		fieldPath := field.Name
		if parentFieldPath != "" {
			fieldPath = parentFieldPath + "." + field.Name
		}

		switch {
		case isOptionalType(field.Type):
			// An unset Optional never fails "required"; a set one is checked
			// like a plain field.
			if fieldValue.Field(1).Bool() {
				fieldErrors = append(fieldErrors, validateField(fieldValue.Field(0), fieldPath, tagCfg)...)
			}
		case isNestedStruct(field.Type):
			fieldErrors = append(fieldErrors, validateStructRecursive(fieldValue, fieldPath)...)
		case isNestedStructPtr(field.Type):
			// A nil *struct only fails "required"; an allocated one is
			// validated field by field.
			if fieldValue.IsNil() {
				fieldErrors = append(fieldErrors, validateField(fieldValue, fieldPath, tagCfg)...)
				continue
			}
			fieldErrors = append(fieldErrors, validateStructRecursive(fieldValue, fieldPath)...)
		default:
			fieldErrors = append(fieldErrors, validateField(fieldValue, fieldPath, tagCfg)...)
		}
	}

	return fieldErrors
}

// validateField validates a single field value against tag-based constraints.
func validateField(fieldValue reflect.Value, fieldPath string, tags tagConfig) []FieldError {
	var errs []FieldError

	// Zero values only fail "required"; bounds and oneof apply to set values.
	if fieldValue.IsZero() {
		if tags.required {
			errs = append(errs, FieldError{
				FieldPath: fieldPath,
				Code:      ErrCodeRequired,
				Message:   "field is required but not provided",
			})
		}
		return errs
	}

	// Check through pointers.
	value := fieldValue
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// Durations are not compared against plain numeric bounds.
		if value.Type() == durationType {
			break
		}
		errs = append(errs, checkBounds(fieldPath, float64(value.Int()), tags, "value %d", value.Int())...)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		errs = append(errs, checkBounds(fieldPath, float64(value.Uint()), tags, "value %d", value.Uint())...)
	case reflect.Float32, reflect.Float64:
		errs = append(errs, checkBounds(fieldPath, value.Float(), tags, "value %g", value.Float())...)
	// Strings and slices are bounded by length.
	case reflect.String:
		n := len(value.String())
		errs = append(errs, checkBounds(fieldPath, float64(n), tags, "string length %d", n)...)
	case reflect.Slice:
		n := value.Len()
		errs = append(errs, checkBounds(fieldPath, float64(n), tags, "length %d", n)...)
	}

	if len(tags.oneof) > 0 {
		errs = append(errs, validateOneof(value, fieldPath, tags)...)
	}

	return errs
}

// checkBounds applies min/max to a numeric measure of the field. Bounds that
// do not parse as numbers are ignored.
func checkBounds(fieldPath string, measure float64, tags tagConfig, format string, shown any) []FieldError {
	var errs []FieldError
	desc := fmt.Sprintf(format, shown)

	if tags.min != "" {
		if minVal, err := strconv.ParseFloat(tags.min, 64); err == nil && measure < minVal {
			errs = append(errs, FieldError{
				FieldPath: fieldPath,
				Code:      ErrCodeMin,
				Message:   fmt.Sprintf("%s is below minimum %s", desc, tags.min),
			})
		}
	}

	if tags.max != "" {
		if maxVal, err := strconv.ParseFloat(tags.max, 64); err == nil && measure > maxVal {
			errs = append(errs, FieldError{
				FieldPath: fieldPath,
				Code:      ErrCodeMax,
				Message:   fmt.Sprintf("%s exceeds maximum %s", desc, tags.max),
			})
		}
	}

	return errs
}

// validateOneof validates that a field value is one of the allowed options.
func validateOneof(fieldValue reflect.Value, fieldPath string, tags tagConfig) []FieldError {
	// Compare against the canonical text form of the value.
	var valueStr string
	switch fieldValue.Kind() {
	case reflect.String:
		valueStr = fieldValue.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		valueStr = strconv.FormatInt(fieldValue.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		valueStr = strconv.FormatUint(fieldValue.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		valueStr = strconv.FormatFloat(fieldValue.Float(), 'f', -1, 64)
	case reflect.Bool:
		valueStr = strconv.FormatBool(fieldValue.Bool())
	default:
		// Kinds without a text form are not checked.
		return nil
	}

	for _, allowed := range tags.oneof {
		if valueStr == allowed {
			return nil
		}
	}

	return []FieldError{{
		FieldPath: fieldPath,
		Code:      ErrCodeOneOf,
		Message:   fmt.Sprintf("value %q must be one of: %s", valueStr, strings.Join(tags.oneof, ", ")),
	}}
}
