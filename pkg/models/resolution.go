package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Resolution is the administrative document that authorizes disbursements.
type Resolution struct {
	DefaultModel
	DocumentNumber     *int64 `json:"documentNumber" gorm:"uniqueIndex:resolution_number_year" example:"1520"`
	DocumentYear       *int64 `json:"documentYear" gorm:"uniqueIndex:resolution_number_year" example:"2024"`
	FullDocumentNumber string `json:"fullDocumentNumber" gorm:"size:256;index" example:"1520/2024"`
}

// BeforeSave keeps the full document number in sync.
func (r *Resolution) BeforeSave(_ *gorm.DB) error {
	r.FullDocumentNumber = r.String()
	return nil
}

// BeforeDelete protects resolutions that are referenced by disbursements.
func (r *Resolution) BeforeDelete(tx *gorm.DB) error {
	var count int64
	err := tx.Model(&Disbursement{}).Where("resolution_id = ?", r.ID).Count(&count).Error
	if err != nil {
		return err
	}

	if count > 0 {
		return fmt.Errorf("%w (%d disbursements)", ErrResolutionInUse, count)
	}
	return nil
}

// Matches reports whether the resolution has the given number and year.
func (r Resolution) Matches(number, year *int64) bool {
	return equalInt64(r.DocumentNumber, number) && equalInt64(r.DocumentYear, year)
}

func (r Resolution) String() string {
	s := ""
	if r.DocumentNumber != nil {
		s = fmt.Sprint(*r.DocumentNumber)
	}
	s += "/"
	if r.DocumentYear != nil {
		s += fmt.Sprint(*r.DocumentYear)
	}
	return s
}

func equalInt64(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
