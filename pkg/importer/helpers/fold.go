package helpers

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips accents and collapses whitespace. It is used to
// compare header and name text written by different people.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// Title trims s and title-cases it, "FACTURA CONTADO" is "Factura Contado".
func Title(s string) string {
	return cases.Title(language.Spanish).String(strings.TrimSpace(s))
}
