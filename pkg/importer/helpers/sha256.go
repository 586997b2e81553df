package helpers

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Sha256String calculates the SHA256 hash of a given string and returns its string representation.
func Sha256String(input string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(input)))
}

// RowHash identifies a spreadsheet row by the text of its cells.
func RowHash(sheet string, cells []any) string {
	texts := make([]string, 0, len(cells)+1)
	texts = append(texts, sheet)
	for _, c := range cells {
		texts = append(texts, TextOrEmpty(c))
	}
	return Sha256String(strings.Join(texts, ","))
}
