package config

import (
	"encoding"
	"fmt"
	"os"
	"reflect"
	"strings"
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// ApplyEnvOverrides sets struct fields of target from environment variables
// named PREFIX_SECTION_FIELD, where each segment is the field's yaml key (or
// its Go name when untagged) in upper case. BEEHIVE_POOL_QUEUE_CAPACITY
// overrides Config.Pool.QueueCapacity.
func ApplyEnvOverrides(prefix string, target any) error {
	if prefix == "" {
		prefix = EnvPrefix
	}

	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("target must be a pointer to a struct")
	}
	return applyEnvToStruct(prefix, val.Elem())
}

func applyEnvToStruct(prefix string, val reflect.Value) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if !field.CanSet() {
			continue
		}
		envKey := prefix + "_" + envName(typ.Field(i))

		if field.Kind() == reflect.Struct && !reflect.PointerTo(field.Type()).Implements(textUnmarshalerType) {
			if err := applyEnvToStruct(envKey, field); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldFromEnv(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s from env %s: %w", typ.Field(i).Name, envKey, err)
		}
	}
	return nil
}

func envName(f reflect.StructField) string {
	name := f.Name
	if tag, _, _ := strings.Cut(f.Tag.Get("yaml"), ","); tag != "" && tag != "-" {
		name = tag
	}
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func setFieldFromEnv(field reflect.Value, envValue string) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return u.UnmarshalText([]byte(envValue))
		}
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		if _, err := fmt.Sscanf(envValue, "%d", &n); err != nil {
			return fmt.Errorf("invalid integer value: %s", envValue)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		if _, err := fmt.Sscanf(envValue, "%d", &n); err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", envValue)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		var f float64
		if _, err := fmt.Sscanf(envValue, "%g", &f); err != nil {
			return fmt.Errorf("invalid float value: %s", envValue)
		}
		field.SetFloat(f)
	case reflect.Bool:
		field.SetBool(strings.EqualFold(envValue, "true") || envValue == "1")
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
