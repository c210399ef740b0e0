package csvstore

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mesh-intelligence/salesdesk/pkg/types"
)

// ColumnType selects how a cell is coerced between text and its JSON value.
type ColumnType int

// Column types.
const (
	String ColumnType = iota
	Int
	Float
	Bool
	Time
	JSON
)

// String returns the SQL-ish name of the column type.
func (c ColumnType) String() string {
	switch c {
	case Int:
		return "INTEGER"
	case Float:
		return "REAL"
	case Bool:
		return "BOOLEAN"
	case Time:
		return "TIMESTAMP"
	case JSON:
		return "JSON"
	default:
		return "TEXT"
	}
}

// Column describes one CSV column. Name is both the header text and the
// JSON field name of the record struct.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

// Text declares a required text column.
func Text(name string) Column { return Column{Name: name, Type: String} }

// NullText declares a nullable text column.
func NullText(name string) Column { return Column{Name: name, Type: String, Nullable: true} }

// Timestamp declares a required RFC 3339 timestamp column.
func Timestamp(name string) Column { return Column{Name: name, Type: Time} }

// NullTimestamp declares a nullable RFC 3339 timestamp column.
func NullTimestamp(name string) Column { return Column{Name: name, Type: Time, Nullable: true} }

// Stamped prepends the id column and appends createdAt and updatedAt.
func Stamped(cols ...Column) []Column {
	out := make([]Column, 0, len(cols)+3)
	out = append(out, Text("id"))
	out = append(out, cols...)
	return append(out, Timestamp("createdAt"), Timestamp("updatedAt"))
}

// encodeCell renders a JSON field value as CSV text. Null becomes the
// empty cell.
func (c Column) encodeCell(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	switch c.Type {
	case String, Time:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("column %s: %w", c.Name, err)
		}
		return s, nil
	default:
		return string(raw), nil
	}
}

// decodeCell coerces CSV text into a value that marshals to the field's
// JSON form. Failures are reported as validation errors for kind.
func (c Column) decodeCell(kind, cell string) (any, error) {
	if cell == "" {
		switch {
		case c.Nullable:
			return nil, nil
		case c.Type == String:
			return "", nil
		case c.Type == Bool:
			return false, nil
		default:
			return nil, types.Invalid(kind, c.Name, "must not be empty")
		}
	}

	switch c.Type {
	case Int:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil, types.Invalid(kind, c.Name, "not an integer: "+cell)
		}
		return n, nil
	case Float:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, types.Invalid(kind, c.Name, "not a number: "+cell)
		}
		return f, nil
	case Bool:
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, types.Invalid(kind, c.Name, "not a boolean: "+cell)
		}
		return b, nil
	case Time:
		if _, err := time.Parse(time.RFC3339Nano, cell); err != nil {
			return nil, types.Invalid(kind, c.Name, "not an RFC 3339 timestamp: "+cell)
		}
		return cell, nil
	case JSON:
		if !json.Valid([]byte(cell)) {
			return nil, types.Invalid(kind, c.Name, "not valid JSON")
		}
		return json.RawMessage(cell), nil
	default:
		return cell, nil
	}
}
