package helpers

import (
	"strings"

	"github.com/educacion-transparente/backend/pkg/models"
)

var transferKeywords = []string{"transf", "cta", "cuenta", "red"}

// PaymentTypeClassifier maps the free text payment type column to one of the
// known payment types. Rows that leave the column blank keep the type of the
// previous row.
type PaymentTypeClassifier struct {
	last string
}

// Classify returns the payment type name for a cell. The result is empty
// when the cell is blank and nothing was classified before.
func (c *PaymentTypeClassifier) Classify(v any) string {
	raw, ok := Text(v)
	if !ok {
		return c.last
	}

	c.last = ClassifyPaymentType(raw)
	return c.last
}

// Last returns the most recently classified payment type.
func (c PaymentTypeClassifier) Last() string {
	return c.last
}

// ClassifyPaymentType classifies non-blank payment type text.
func ClassifyPaymentType(raw string) string {
	normalized := strings.ToLower(raw)

	if strings.Contains(normalized, "ch") {
		return models.PaymentTypeCheque
	}

	for _, keyword := range transferKeywords {
		if strings.Contains(normalized, keyword) {
			return models.PaymentTypeTransfer
		}
	}

	return models.PaymentTypeOther
}
