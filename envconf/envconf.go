// Package envconf fills config structs from environment variables described by `env` struct tags.
//
//	type Config struct {
//		APIURL   string `env:"API_URL,required"`
//		Contract string `env:"LINK_CONTRACT,opt[explicit,signed_url]"`
//		Verbose  bool   `env:"VERBOSE"`
//	}
//
// Supported field kinds are string and bool. Supported constraints are required and opt[...].
package envconf

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/bitrise-io/go-utils/v2/env"
)

const (
	optPrefix = "opt["
	optSuffix = "]"
)

// ErrNotStructPtr is returned when Parse gets anything but a pointer to a struct.
var ErrNotStructPtr = errors.New("input must be a struct pointer")

// ParseError collects every invalid field of a config.
type ParseError struct {
	Errors []error
}

func (e *ParseError) Error() string {
	var lines []string
	for _, err := range e.Errors {
		lines = append(lines, "- "+err.Error())
	}
	return "failed to parse config:\n" + strings.Join(lines, "\n")
}

func (e *ParseError) Unwrap() []error {
	return e.Errors
}

// Parse populates a struct with the env vars of envRepo named by the `env` tag of its fields.
func Parse(input interface{}, envRepo env.Repository) error {
	if input == nil {
		return ErrNotStructPtr
	}
	v := reflect.ValueOf(input)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrNotStructPtr
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrNotStructPtr
	}

	var errs []error
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("env")
		if !ok || !field.IsExported() {
			continue
		}

		key, constraint := parseTag(tag)
		value := envRepo.Get(key)

		if err := setField(v.Field(i), value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if err := validate(value, constraint); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	if len(errs) > 0 {
		return &ParseError{Errors: errs}
	}
	return nil
}

func parseTag(tag string) (string, string) {
	key, constraint, _ := strings.Cut(tag, ",")
	return strings.TrimSpace(key), strings.TrimSpace(constraint)
}

func setField(field reflect.Value, value string) error {
	if value == "" {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Type())
	}
	return nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("can't convert %q to bool", value)
	}
}

func validate(value, constraint string) error {
	switch {
	case constraint == "":
		return nil
	case constraint == "required":
		if value == "" {
			return fmt.Errorf("required variable is not present")
		}
	case strings.HasPrefix(constraint, optPrefix) && strings.HasSuffix(constraint, optSuffix):
		if value == "" {
			return nil
		}
		options := strings.Split(strings.TrimSuffix(strings.TrimPrefix(constraint, optPrefix), optSuffix), ",")
		for _, option := range options {
			if strings.TrimSpace(option) == value {
				return nil
			}
		}
		return fmt.Errorf("value %q is not in the available options: %s", value, strings.Join(options, ", "))
	default:
		return fmt.Errorf("invalid constraint: %s", constraint)
	}
	return nil
}

// Print renders the env backed fields of a config for debug logs.
func Print(config interface{}) string {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}

	var b strings.Builder
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("env")
		if !ok || !t.Field(i).IsExported() {
			continue
		}
		key, _ := parseTag(tag)
		fmt.Fprintf(&b, "- %s: %v\n", key, v.Field(i).Interface())
	}
	return b.String()
}
