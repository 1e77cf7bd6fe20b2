package dotenv

import (
	"strings"
)

// tagConfig holds parsed directives from a struct field's `conf` tag.
type tagConfig struct {
	env        string   // Explicit key (env:KEY_NAME), used verbatim
	prefix     string   // Key prefix for nested structs (prefix:DB)
	defValue   string   // Default value (default:value)
	min        string   // Minimum constraint (min:N)
	max        string   // Maximum constraint (max:M)
	oneof      []string // Allowed values (oneof:a,b,c)
	required   bool     // Field is required (required or required:true)
	secret     bool     // Field is secret (secret or secret:true)
	hasDefault bool     // Whether a default directive was present
	skip       bool     // Field is ignored (conf:"-")
}

var directiveNames = []string{"env", "prefix", "default", "min", "max", "oneof", "required", "secret"}

// parseTag parses a `conf` struct tag.
// Tag format: "directive1:value1,directive2:value2,..."
// A comma followed by something that is not a directive continues the previous
// value, so "oneof:a,b,c" and "default:x,y" keep their commas.
func parseTag(tag string) tagConfig {
	cfg := tagConfig{}
	if tag == "" {
		return cfg
	}
	if tag == "-" {
		cfg.skip = true
		return cfg
	}

	for _, directive := range splitDirectives(tag) {
		name, value, hasValue := strings.Cut(directive, ":")
		name = strings.TrimSpace(name)

		switch name {
		case "env":
			cfg.env = strings.TrimSpace(value)
		case "prefix":
			cfg.prefix = strings.TrimSpace(value)
		case "default":
			cfg.defValue = value
			cfg.hasDefault = true
		case "min":
			cfg.min = strings.TrimSpace(value)
		case "max":
			cfg.max = strings.TrimSpace(value)
		case "oneof":
			if value != "" {
				cfg.oneof = strings.Split(value, ",")
				for i := range cfg.oneof {
					cfg.oneof[i] = strings.TrimSpace(cfg.oneof[i])
				}
			}
		case "required":
			cfg.required = boolDirective(value, hasValue)
		case "secret":
			cfg.secret = boolDirective(value, hasValue)
		}
	}

	return cfg
}

// boolDirective treats a bare directive or anything but "false" as true.
func boolDirective(value string, hasValue bool) bool {
	if !hasValue {
		return true
	}
	return strings.TrimSpace(value) != "false"
}

// splitDirectives splits a tag on commas that start a new directive.
func splitDirectives(tag string) []string {
	var directives []string
	for _, part := range strings.Split(tag, ",") {
		if len(directives) > 0 && !startsWithDirective(part) {
			directives[len(directives)-1] += "," + part
			continue
		}
		directives = append(directives, part)
	}
	return directives
}

// startsWithDirective checks if s starts with a known directive name.
func startsWithDirective(s string) bool {
	s = strings.TrimSpace(s)
	name, _, _ := strings.Cut(s, ":")
	for _, d := range directiveNames {
		if name == d {
			return true
		}
	}
	return false
}
