package config

import (
	"fmt"
	"reflect"
	"strings"
)

// Validator validates configuration
type Validator interface {
	Validate(config any) error
}

// ValidatorFunc is a function that validates configuration
type ValidatorFunc func(config any) error

func (f ValidatorFunc) Validate(config any) error {
	return f(config)
}

// Validate runs validators in order and returns the first failure
func Validate(config any, validators ...Validator) error {
	for _, v := range validators {
		if err := v.Validate(config); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}
	return nil
}

// When applies validators only if cond holds
func When(cond bool, validators ...Validator) Validator {
	return ValidatorFunc(func(config any) error {
		if !cond {
			return nil
		}
		for _, v := range validators {
			if err := v.Validate(config); err != nil {
				return err
			}
		}
		return nil
	})
}

// RequiredFields validates that the named fields are not zero. Field paths
// use dot notation, e.g. "Intake.URL".
func RequiredFields(fields ...string) Validator {
	return ValidatorFunc(func(config any) error {
		val := structValue(config)
		if !val.IsValid() {
			return fmt.Errorf("config must be a struct")
		}

		var missing []string
		for _, name := range fields {
			f := getNestedField(val, name)
			if !f.IsValid() {
				return fmt.Errorf("field %s not found in config struct", name)
			}
			if f.IsZero() {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("required fields are missing: %s", strings.Join(missing, ", "))
		}
		return nil
	})
}

// RangeValidator validates that a numeric field is within [min, max]
func RangeValidator(fieldName string, min, max float64) Validator {
	return ValidatorFunc(func(config any) error {
		f := getNestedField(structValue(config), fieldName)
		if !f.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}

		var n float64
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n = float64(f.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n = float64(f.Uint())
		case reflect.Float32, reflect.Float64:
			n = f.Float()
		default:
			return fmt.Errorf("field %s is not numeric", fieldName)
		}

		if n < min || n > max {
			return fmt.Errorf("field %s value %v is out of range [%v, %v]", fieldName, n, min, max)
		}
		return nil
	})
}

// OneOfValidator validates that a field equals one of allowed
func OneOfValidator(fieldName string, allowed ...any) Validator {
	return ValidatorFunc(func(config any) error {
		f := getNestedField(structValue(config), fieldName)
		if !f.IsValid() {
			return fmt.Errorf("field %s not found", fieldName)
		}

		v := f.Interface()
		for _, a := range allowed {
			if reflect.DeepEqual(v, a) {
				return nil
			}
		}
		return fmt.Errorf("field %s value %v is not one of allowed values: %v", fieldName, v, allowed)
	})
}

func structValue(config any) reflect.Value {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	return val
}

// getNestedField resolves a dot-separated field path
func getNestedField(val reflect.Value, fieldPath string) reflect.Value {
	current := val
	for _, part := range strings.Split(fieldPath, ".") {
		if current.Kind() == reflect.Ptr {
			current = current.Elem()
		}
		if current.Kind() != reflect.Struct {
			return reflect.Value{}
		}
		current = current.FieldByName(part)
		if !current.IsValid() {
			return reflect.Value{}
		}
	}
	return current
}
