package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportStatusFinished ReportStatus = "finished"
	ReportStatusPending  ReportStatus = "pending"
)

// Report is the accountability filing of an institution for a disbursement.
type Report struct {
	DefaultModel
	DisbursementID uuid.UUID    `json:"disbursementId" gorm:"type:char(36);uniqueIndex"`
	Disbursement   Disbursement `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Status         ReportStatus `json:"status" gorm:"size:20;default:pending" example:"pending"`
	ReportDate     *time.Time   `json:"reportDate"`
	DeliveredVia   string       `json:"deliveredVia" gorm:"size:250" example:"Mesa de entrada"`
	Comments       string       `json:"comments"`
	InstitutionID  *uuid.UUID   `json:"institutionId" gorm:"type:char(36);index"` // Always the institution of the disbursement
	Institution    *Institution `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeSave copies the institution from the disbursement.
func (r *Report) BeforeSave(tx *gorm.DB) error {
	if r.DisbursementID == uuid.Nil {
		return ErrReportWithoutParent
	}

	institutionID := r.Disbursement.InstitutionID
	if r.Disbursement.ID != r.DisbursementID || institutionID == uuid.Nil {
		var d Disbursement
		err := tx.Select("id", "institution_id").First(&d, "id = ?", r.DisbursementID).Error
		if err != nil {
			return fmt.Errorf("loading disbursement of report: %w", err)
		}
		institutionID = d.InstitutionID
	}
	r.InstitutionID = &institutionID

	if r.Status == "" {
		r.Status = ReportStatusPending
	}
	r.ReportDate = dayPtr(r.ReportDate)
	r.DeliveredVia = strings.TrimSpace(r.DeliveredVia)
	r.Comments = strings.TrimSpace(r.Comments)
	return nil
}

// DeriveReportStatus compares the disbursed amount with the reported amount.
// A balance of zero or less means the disbursement has been fully accounted for.
func DeriveReportStatus(disbursed, reported decimal.Decimal) ReportStatus {
	return DeriveReportStatusFromBalance(disbursed.Sub(reported))
}

// DeriveReportStatusFromBalance returns the status for an outstanding balance.
func DeriveReportStatusFromBalance(balance decimal.Decimal) ReportStatus {
	if balance.LessThanOrEqual(decimal.Zero) {
		return ReportStatusFinished
	}
	return ReportStatusPending
}

// RefreshStatus recomputes the status from the receipts of the report and
// persists it. Reports for disbursements without a known amount keep their status.
func (r *Report) RefreshStatus(db *gorm.DB) error {
	var d Disbursement
	err := db.Select("id", "amount_disbursed").First(&d, "id = ?", r.DisbursementID).Error
	if err != nil {
		return err
	}

	if !d.AmountDisbursed.Valid {
		return nil
	}

	reported, err := r.ReportedTotal(db)
	if err != nil {
		return err
	}

	status := DeriveReportStatus(d.AmountDisbursed.Decimal, reported)
	if status == r.Status {
		return nil
	}

	// UpdateColumn skips the hooks, the institution does not change here
	err = db.Model(r).UpdateColumn("status", status).Error
	if err != nil {
		return err
	}
	r.Status = status
	return nil
}

// ReportedTotal is the sum of the subtotals of all receipt items of the report.
func (r Report) ReportedTotal(db *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := db.Table("receipt_items").
		Joins("JOIN receipts ON receipts.id = receipt_items.receipt_id").
		Where("receipts.report_id = ?", r.ID).
		Select("SUM(receipt_items.quantity * receipt_items.unit_price)").
		Row().
		Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing receipt items of report %s: %w", r.ID, err)
	}

	return total.Decimal, nil
}
