// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DisplayValue converts a native driver value into a JSON-safe scalar.
//
// Numbers, booleans and strings pass through. Times become RFC 3339 text, or
// a plain date when they carry no time of day. 16-byte values are rendered as
// UUIDs, other byte slices as text when valid UTF-8 and as \x-prefixed hex
// otherwise. Decimal and other driver types fall back to their string form.
func DisplayValue(v any) any {
	switch x := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return x
	case float32:
		return displayFloat(float64(x), x)
	case float64:
		return displayFloat(x, x)
	case time.Time:
		return displayTime(x)
	case [16]byte:
		return uuid.UUID(x).String()
	case []byte:
		return displayBytes(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = DisplayValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = DisplayValue(e)
		}
		return out
	case driver.Valuer:
		inner, err := x.Value()
		if err != nil {
			return fmt.Sprint(v)
		}
		if _, again := inner.(driver.Valuer); again {
			return fmt.Sprint(inner)
		}
		return DisplayValue(inner)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func displayFloat(f float64, orig any) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return orig
}

func displayTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		if _, off := t.Zone(); off == 0 {
			return t.Format(time.DateOnly)
		}
	}
	return t.Format(time.RFC3339Nano)
}

func displayBytes(b []byte) string {
	if len(b) == 16 && !utf8.Valid(b) {
		id, _ := uuid.FromBytes(b)
		return id.String()
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return `\x` + hex.EncodeToString(b)
}
