package models

import (
	"strings"

	"gorm.io/gorm"
)

// FundsOrigin is the budget source code of a disbursement.
type FundsOrigin struct {
	DefaultModel
	Code int64 `json:"code" gorm:"uniqueIndex" example:"30"`
}

// OriginDetail is the program ("marco") a disbursement was made under.
type OriginDetail struct {
	DefaultModel
	Name string `json:"name" gorm:"size:250;uniqueIndex" example:"Gratuidad"`
}

func (o *OriginDetail) BeforeSave(_ *gorm.DB) error {
	o.Name = strings.TrimSpace(o.Name)
	return nil
}

// Payment type names produced by the payment type classification.
const (
	PaymentTypeCheque   = "Cheque"
	PaymentTypeTransfer = "Transferencia bancaria"
	PaymentTypeOther    = "Otro"
)

// PaymentType is the way the funds were paid out.
type PaymentType struct {
	DefaultModel
	Name string `json:"name" gorm:"size:250;uniqueIndex" example:"Cheque"`
}

func (p *PaymentType) BeforeSave(_ *gorm.DB) error {
	p.Name = strings.TrimSpace(p.Name)
	return nil
}

// ReceiptType is the kind of voucher, e.g. invoice or ticket.
type ReceiptType struct {
	DefaultModel
	Name string `json:"name" gorm:"size:100;uniqueIndex" example:"Factura"`
}

func (r *ReceiptType) BeforeSave(_ *gorm.DB) error {
	r.Name = strings.TrimSpace(r.Name)
	return nil
}
