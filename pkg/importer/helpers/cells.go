// Package helpers contains the lenient cell parsers used by the importers.
//
// None of the functions in this package fail. Spreadsheets are maintained by
// hand, so malformed values degrade to "absent" or zero and the caller decides
// whether to carry a previous value forward or skip the row.
package helpers

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var digits = regexp.MustCompile(`\d+`)

// Date returns the calendar day of a date cell. Only time.Time values are
// dates, text that looks like a date is not.
func Date(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}

	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// Currency parses a monetary cell. Numbers are used as they are, with
// fractions truncated. For text, all digit runs are concatenated, so
// "Gs. 1.500.000" is 1500000. Anything else is 0.
func Currency(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case string:
		s := strings.Join(digits.FindAllString(n, -1), "")
		if s == "" {
			return 0
		}

		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0
		}
		return i
	}

	if f, ok := number(v); ok {
		return int64(math.Trunc(f))
	}
	return 0
}

// Amount is Currency for optional amount columns. Empty cells and text
// without any digits are absent.
func Amount(v any) decimal.NullDecimal {
	if s, ok := v.(string); ok {
		if !digits.MatchString(s) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromInt(Currency(s)))
	}

	f, ok := number(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(f))
}

// Int parses an integer cell, e.g. a resolution number or an account object
// key. Fractions are truncated. Text must be a number.
func Int(v any) (int64, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return i, true
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(math.Trunc(f)), true
	}

	f, ok := number(v)
	if !ok {
		return 0, false
	}
	return int64(math.Trunc(f)), true
}

// Text returns the trimmed text of a cell. Whole numbers are rendered without
// a fraction. Blank cells are absent.
func Text(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case time.Time:
		s = t.Format(time.DateOnly)
	case bool:
		s = strconv.FormatBool(t)
	case float64:
		s = formatFloat(t)
	case float32:
		s = formatFloat(float64(t))
	default:
		s = fmt.Sprint(t)
	}

	s = strings.TrimSpace(s)
	return s, s != ""
}

// TextOrEmpty is Text without the presence flag.
func TextOrEmpty(v any) string {
	s, _ := Text(v)
	return s
}

// Blank reports whether the cell has no content.
func Blank(v any) bool {
	_, ok := Text(v)
	return !ok
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// number converts the numeric kinds to float64.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case decimal.Decimal:
		return n.InexactFloat64(), true
	}
	return 0, false
}
