package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider is the supplier that issued a receipt, identified by its RUC (tax id).
type Provider struct {
	DefaultModel
	RUC  string `json:"ruc" gorm:"size:20;uniqueIndex" example:"80012345-6"`
	Name string `json:"name" gorm:"size:250" example:"Librería El Estudiante S.A."`
}

// BeforeSave validates the RUC.
func (p *Provider) BeforeSave(_ *gorm.DB) error {
	p.RUC = strings.TrimSpace(p.RUC)
	p.Name = strings.TrimSpace(p.Name)

	if len([]rune(p.RUC)) < 4 {
		return ErrProviderRUCTooShort
	}
	return nil
}

// Receipt is a voucher that substantiates part of a report.
type Receipt struct {
	DefaultModel
	ReportID       uuid.UUID     `json:"reportId" gorm:"type:char(36);index:receipt_natural_key"`
	Report         Report        `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ReceiptTypeID  uuid.UUID     `json:"receiptTypeId" gorm:"type:char(36);index:receipt_natural_key"`
	ReceiptType    ReceiptType   `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ReceiptDate    *time.Time    `json:"receiptDate" gorm:"index:receipt_natural_key"`
	ReceiptNumber  string        `json:"receiptNumber" gorm:"size:64;index:receipt_natural_key" example:"001-001-0001234"`
	ProviderID     *uuid.UUID    `json:"providerId" gorm:"type:char(36)"`
	Provider       *Provider     `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	InstitutionID  *uuid.UUID    `json:"institutionId" gorm:"type:char(36);index"` // Always the institution of the report
	Institution    *Institution  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	DisbursementID *uuid.UUID    `json:"disbursementId" gorm:"type:char(36);index"` // Always the disbursement of the report
	Disbursement   *Disbursement `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
}

// BeforeSave copies institution and disbursement from the report.
func (r *Receipt) BeforeSave(tx *gorm.DB) error {
	if r.ReportID == uuid.Nil {
		return ErrReceiptWithoutReport
	}

	report := r.Report
	if report.ID != r.ReportID || report.InstitutionID == nil {
		report = Report{}
		err := tx.Select("id", "disbursement_id", "institution_id").First(&report, "id = ?", r.ReportID).Error
		if err != nil {
			return fmt.Errorf("loading report of receipt: %w", err)
		}
	}

	disbursementID := report.DisbursementID
	r.DisbursementID = &disbursementID
	r.InstitutionID = report.InstitutionID

	if r.ProviderID != nil && *r.ProviderID == uuid.Nil {
		r.ProviderID = nil
	}
	r.ReceiptDate = dayPtr(r.ReceiptDate)
	r.ReceiptNumber = strings.TrimSpace(r.ReceiptNumber)
	return nil
}

// AfterFind enforces UTC on the receipt date.
func (r *Receipt) AfterFind(tx *gorm.DB) error {
	err := r.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	if r.ReceiptDate != nil {
		utc := r.ReceiptDate.In(time.UTC)
		r.ReceiptDate = &utc
	}
	return nil
}
