package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DueDatePolicy decides how the due date of a report is derived
// from the disbursement date.
type DueDatePolicy string

const (
	// DueDateFlat adds 105 days to the disbursement date.
	DueDateFlat DueDatePolicy = "105d"
	// DueDateSemester adds six calendar months and 15 days. Month ends are
	// clamped, so August 31st plus six months is the last day of February.
	DueDateSemester DueDatePolicy = "6m15d"
)

// DefaultDueDatePolicy is used when a disbursement is saved without a due date.
const DefaultDueDatePolicy = DueDateFlat

// ParseDueDatePolicy parses the configuration value of a due date policy.
// An empty string yields the default policy.
func ParseDueDatePolicy(s string) (DueDatePolicy, error) {
	switch DueDatePolicy(strings.TrimSpace(s)) {
	case "":
		return DefaultDueDatePolicy, nil
	case DueDateFlat:
		return DueDateFlat, nil
	case DueDateSemester:
		return DueDateSemester, nil
	}
	return "", fmt.Errorf("unknown due date policy %q, use %q or %q", s, DueDateFlat, DueDateSemester)
}

// DueDate returns the due date for a disbursement made on the given day.
func (p DueDatePolicy) DueDate(disbursed time.Time) time.Time {
	disbursed = Day(disbursed)
	if p == DueDateSemester {
		return addMonthsClamped(disbursed, 6).AddDate(0, 0, 15)
	}
	return disbursed.AddDate(0, 0, 105)
}

// addMonthsClamped adds months without overflowing into the following
// month when the target month is shorter.
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// Disbursement is a transfer of public funds to an institution.
type Disbursement struct {
	DefaultModel
	ResolutionID      uuid.UUID           `json:"resolutionId" gorm:"type:char(36);uniqueIndex:disbursement_natural_key"`
	Resolution        Resolution          `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	InstitutionID     uuid.UUID           `json:"institutionId" gorm:"type:char(36);uniqueIndex:disbursement_natural_key"`
	Institution       Institution         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	DisbursementDate  *time.Time          `json:"disbursementDate" gorm:"uniqueIndex:disbursement_natural_key"`
	DueDate           *time.Time          `json:"dueDate"`
	ResolutionAmount  decimal.NullDecimal `json:"resolutionAmount" gorm:"type:DECIMAL(20,2)"`
	AmountDisbursed   decimal.NullDecimal `json:"amountDisbursed" gorm:"type:DECIMAL(20,2)"`
	FundsOriginID     *uuid.UUID          `json:"fundsOriginId" gorm:"type:char(36)"`
	FundsOrigin       *FundsOrigin        `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	OriginDetailID    *uuid.UUID          `json:"originDetailId" gorm:"type:char(36)"`
	OriginDetail      *OriginDetail       `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	PaymentTypeID     *uuid.UUID          `json:"paymentTypeId" gorm:"type:char(36)"`
	PaymentType       *PaymentType        `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	PrincipalName     string              `json:"principalName" gorm:"size:200"`
	PrincipalIssuedID string              `json:"principalIssuedId" gorm:"size:20"`
	Comments          string              `json:"comments"`
}

// BeforeSave
//   - truncates dates to the calendar day in UTC
//   - derives the due date with the default policy when it is not set
//   - trims whitespace from string fields
func (d *Disbursement) BeforeSave(_ *gorm.DB) error {
	d.DisbursementDate = dayPtr(d.DisbursementDate)
	d.DueDate = dayPtr(d.DueDate)

	if d.DueDate == nil && d.DisbursementDate != nil {
		due := DefaultDueDatePolicy.DueDate(*d.DisbursementDate)
		d.DueDate = &due
	}

	d.PrincipalName = strings.TrimSpace(d.PrincipalName)
	d.PrincipalIssuedID = strings.TrimSpace(d.PrincipalIssuedID)
	d.Comments = strings.TrimSpace(d.Comments)
	return nil
}

// AfterFind enforces UTC on the dates.
func (d *Disbursement) AfterFind(tx *gorm.DB) error {
	err := d.DefaultModel.AfterFind(tx)
	if err != nil {
		return err
	}

	if d.DisbursementDate != nil {
		utc := d.DisbursementDate.In(time.UTC)
		d.DisbursementDate = &utc
	}
	if d.DueDate != nil {
		utc := d.DueDate.In(time.UTC)
		d.DueDate = &utc
	}
	return nil
}
