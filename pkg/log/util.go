package log

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// toFields turns logr style key/value pairs into zap fields. Ready made
// zap.Fields and bare errors may be mixed in without a key. A trailing key
// without value and non-string keys are kept under a generated key so that
// nothing is lost.
func toFields(args ...any) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2+1)
	for i := 0; i < len(args); {
		switch v := args[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i == len(args)-1 {
			fields = append(fields, zap.Any(fmt.Sprintf("arg#%d", i), args[i]))
			break
		}

		key, val := args[i], args[i+1]
		i += 2

		k, ok := key.(string)
		if !ok {
			fields = append(fields, zap.Any(fmt.Sprintf("invalid_key_%d", i/2), map[string]any{"key": key, "value": val}))
			continue
		}
		fields = append(fields, field(k, val))
	}
	return fields
}

// field picks a typed zap field for the value kinds this module logs.
func field(key string, val any) zap.Field {
	switch v := val.(type) {
	case string:
		return zap.String(key, v)
	case bool:
		return zap.Bool(key, v)
	case int:
		return zap.Int(key, v)
	case int64:
		return zap.Int64(key, v)
	case float64:
		return zap.Float64(key, v)
	case *float64:
		// optional measurements such as trip distance
		if v == nil {
			return zap.Skip()
		}
		return zap.Float64(key, *v)
	case time.Duration:
		return zap.Duration(key, v)
	case time.Time:
		return zap.Time(key, v)
	case []string:
		return zap.Strings(key, v)
	case error:
		return zap.NamedError(key, v)
	case fmt.Stringer:
		return zap.Stringer(key, v)
	case []byte:
		return zap.Binary(key, v)
	default:
		return zap.Any(key, v)
	}
}
