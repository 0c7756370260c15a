package postgres

import (
	"strings"

	"github.com/datachat-io/engine/pkg/models"
)

// genericTypeFromOID maps PostgreSQL type OIDs to the portable type model.
// Unknown types fall back to text.
func genericTypeFromOID(oid uint32) models.GenericType {
	switch oid {
	case 16: // bool
		return models.TypeBoolean
	case 20, 21, 23, 26: // int8, int2, int4, oid
		return models.TypeInteger
	case 700, 701, 790, 1700: // float4, float8, money, numeric
		return models.TypeDecimal
	case 1082: // date
		return models.TypeDate
	case 1083, 1114, 1184, 1266: // time, timestamp, timestamptz, timetz
		return models.TypeTimestamp
	default:
		return models.TypeText
	}
}

// genericTypeFromName maps information_schema data type names to the portable
// type model.
func genericTypeFromName(dataType string) models.GenericType {
	switch strings.ToLower(dataType) {
	case "boolean", "bool":
		return models.TypeBoolean
	case "smallint", "integer", "bigint", "int", "int2", "int4", "int8":
		return models.TypeInteger
	case "numeric", "decimal", "real", "double precision", "money", "float4", "float8":
		return models.TypeDecimal
	case "date":
		return models.TypeDate
	case "timestamp", "timestamp without time zone", "timestamp with time zone",
		"time", "time without time zone", "time with time zone":
		return models.TypeTimestamp
	default:
		return models.TypeText
	}
}
