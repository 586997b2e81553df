package helpers

import (
	"strings"

	"github.com/shopspring/decimal"
)

var coordinateSeparators = strings.NewReplacer("°", "|", "º", "|", "'", "|", `"`, "|")

// Coordinate converts degrees, minutes and seconds with a direction, e.g.
// 40° 26' 46" N, to decimal degrees. West and south are negative. Input that
// does not have exactly these four parts is absent.
func Coordinate(s string) decimal.NullDecimal {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}
	}

	tokens := strings.Split(coordinateSeparators.Replace(s), "|")
	if len(tokens) != 4 {
		return decimal.NullDecimal{}
	}

	var parts [3]decimal.Decimal
	for i := range parts {
		d, err := decimal.NewFromString(strings.ReplaceAll(tokens[i], " ", ""))
		if err != nil {
			return decimal.NullDecimal{}
		}
		parts[i] = d
	}

	value := parts[0].
		Add(parts[1].Div(decimal.NewFromInt(60))).
		Add(parts[2].Div(decimal.NewFromInt(3600))).
		Round(8)

	direction := strings.ToUpper(strings.ReplaceAll(tokens[3], " ", ""))
	if direction == "W" || direction == "S" {
		value = value.Neg()
	}

	return decimal.NewNullDecimal(value)
}
