package postgres

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/datachat-io/engine/pkg/models"
)

// maxSafeInteger is the largest integer exactly representable as a float64.
// Larger values become decimal strings instead of silently losing precision.
const maxSafeInteger = int64(1)<<53 - 1

// normalizeValue coerces a driver cell value into the portable scalar set:
// float64, string, bool, or nil.
func normalizeValue(v any, colType models.GenericType) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return normalizeInt64(val)
	case int32:
		return float64(val)
	case int16:
		return float64(val)
	case int8:
		return float64(val)
	case int:
		return normalizeInt64(int64(val))
	case uint32:
		return float64(val)
	case uint64:
		if val > uint64(maxSafeInteger) {
			return strconv.FormatUint(val, 10)
		}
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case time.Time:
		if colType == models.TypeDate {
			return val.Format("2006-01-02")
		}
		return val.UTC().Format(time.RFC3339)
	case pgtype.Numeric:
		return normalizeNumeric(val)
	case [16]byte:
		return uuid.UUID(val).String()
	default:
		return fmt.Sprint(val)
	}
}

func normalizeInt64(val int64) any {
	if val > maxSafeInteger || val < -maxSafeInteger {
		return strconv.FormatInt(val, 10)
	}
	return float64(val)
}

// normalizeNumeric converts an arbitrary-precision NUMERIC to a float64, or
// to its decimal string form when it does not fit.
func normalizeNumeric(val pgtype.Numeric) any {
	if !val.Valid {
		return nil
	}
	if f, err := val.Float64Value(); err == nil && f.Valid && !math.IsInf(f.Float64, 0) {
		return f.Float64
	}
	if s, err := val.Value(); err == nil {
		if str, ok := s.(string); ok {
			return str
		}
	}
	return nil
}
