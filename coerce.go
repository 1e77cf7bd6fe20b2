package dotenv

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	errUnsupportedType = errors.New("unsupported field type")

	durationType        = reflect.TypeOf(time.Duration(0))
	timeType            = reflect.TypeOf(time.Time{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// timeLayouts are tried in order when decoding a time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// setValue converts raw to fv's type and assigns it.
// Types implementing encoding.TextUnmarshaler (enums, net.IP) are decoded
// with UnmarshalText before kind-based conversion is tried.
func setValue(fv reflect.Value, raw string) error {
	if fv.Type() == timeType {
		t, err := parseTime(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		fv.Set(reflect.ValueOf(t))
		return nil
	}
	if fv.CanAddr() && fv.Addr().Type().Implements(textUnmarshalerType) {
		return fv.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw))
	}

	switch fv.Kind() {
	case reflect.Ptr:
		elem := reflect.New(fv.Type().Elem())
		if err := setValue(elem.Elem(), raw); err != nil {
			return err
		}
		fv.Set(elem)

	case reflect.String:
		fv.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		fv.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s := strings.TrimSpace(raw)
		if fv.Type() == durationType {
			d, err := time.ParseDuration(s)
			if err != nil {
				return err
			}
			fv.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(s, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetFloat(f)

	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.Uint8 {
			fv.SetBytes([]byte(raw))
			return nil
		}
		if strings.TrimSpace(raw) == "" {
			fv.Set(reflect.MakeSlice(fv.Type(), 0, 0))
			return nil
		}
		parts := strings.Split(raw, ",")
		slice := reflect.MakeSlice(fv.Type(), len(parts), len(parts))
		for i, p := range parts {
			if err := setValue(slice.Index(i), strings.TrimSpace(p)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		fv.Set(slice)

	default:
		return fmt.Errorf("%w: %s", errUnsupportedType, fv.Type())
	}

	return nil
}

// parseTime tries each of timeLayouts in turn and returns the first
// layout's error when none match.
func parseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
