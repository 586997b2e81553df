package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReceiptItem is a line of a receipt, booked on an expenditure object.
type ReceiptItem struct {
	DefaultModel
	ReceiptID       uuid.UUID       `json:"receiptId" gorm:"type:char(36);index"`
	Receipt         Receipt         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AccountObjectID *uuid.UUID      `json:"accountObjectId" gorm:"type:char(36);index"`
	AccountObject   *AccountObject  `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	Description     string          `json:"description" gorm:"size:500" example:"Resmas de papel"`
	UnitPrice       decimal.Decimal `json:"unitPrice" gorm:"type:DECIMAL(20,2)" example:"35000"`
	Quantity        decimal.Decimal `json:"quantity" gorm:"type:DECIMAL(12,4)" example:"1"`
	ImportHash      string          `json:"importHash" gorm:"size:64;index"` // SHA256 of the spreadsheet row the item was imported from
}

// BeforeSave
//   - defaults the quantity to 1
//   - defaults a blank description to the label of the expenditure object
func (i *ReceiptItem) BeforeSave(tx *gorm.DB) error {
	if i.Quantity.IsZero() {
		i.Quantity = decimal.NewFromInt(1)
	}

	if i.AccountObjectID != nil && *i.AccountObjectID == uuid.Nil {
		i.AccountObjectID = nil
	}

	i.Description = strings.TrimSpace(i.Description)
	if i.Description != "" || i.AccountObjectID == nil {
		return nil
	}

	if i.AccountObject != nil && i.AccountObject.ID == *i.AccountObjectID {
		i.Description = i.AccountObject.Value
		return nil
	}

	var object AccountObject
	err := tx.Select("id", "value").First(&object, "id = ?", *i.AccountObjectID).Error
	if err != nil {
		return err
	}
	i.Description = object.Value
	return nil
}

// Subtotal is quantity times unit price.
func (i ReceiptItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}
