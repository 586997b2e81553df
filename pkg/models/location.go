package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Department is the top level of the geographic hierarchy.
type Department struct {
	DefaultModel
	Code string `json:"code" gorm:"size:12;uniqueIndex" example:"01"` // Two digit department code
	Name string `json:"name" gorm:"size:256" example:"Concepción"`
}

// BeforeSave zero-pads single digit codes.
func (d *Department) BeforeSave(_ *gorm.DB) error {
	d.Code = PadDepartmentCode(d.Code)
	d.Name = strings.TrimSpace(d.Name)
	return nil
}

// PadDepartmentCode left-pads department codes to two digits.
func PadDepartmentCode(code string) string {
	code = strings.TrimSpace(code)
	if code != "" && len(code) < 2 {
		return "0" + code
	}
	return code
}

// District belongs to a Department. Codes are unique per department.
type District struct {
	DefaultModel
	Code         string     `json:"code" gorm:"size:12;uniqueIndex:district_department_code"`
	Name         string     `json:"name" gorm:"size:500;index"`
	DepartmentID uuid.UUID  `json:"departmentId" gorm:"type:char(36);uniqueIndex:district_department_code"`
	Department   Department `json:"-"`
}

// Locality (barrio/localidad) belongs to a District. Codes are unique per district.
type Locality struct {
	DefaultModel
	Code       string    `json:"code" gorm:"size:12;uniqueIndex:locality_district_code"`
	Name       string    `json:"name" gorm:"size:500;index"`
	DistrictID uuid.UUID `json:"districtId" gorm:"type:char(36);uniqueIndex:locality_district_code"`
	District   District  `json:"-"`
}

// Establishment is a physical site that hosts one or more institutions.
type Establishment struct {
	DefaultModel
	Code            string              `json:"code" gorm:"size:12;uniqueIndex"`
	LastDataCapture *int64              `json:"lastDataCapture"` // Year of the census the row was taken from
	DistrictID      uuid.UUID           `json:"districtId" gorm:"type:char(36)"`
	District        District            `json:"-"`
	LocalityID      *uuid.UUID          `json:"localityId" gorm:"type:char(36)"`
	Locality        *Locality           `json:"-"`
	ZoneCode        string              `json:"zoneCode" gorm:"size:4"`
	ZoneName        string              `json:"zoneName" gorm:"size:128"`
	Address         string              `json:"address"`
	Latitude        decimal.NullDecimal `json:"latitude" gorm:"type:DECIMAL(12,8)"`
	Longitude       decimal.NullDecimal `json:"longitude" gorm:"type:DECIMAL(12,8)"`
}

// BeforeSave trims whitespace from string fields.
func (e *Establishment) BeforeSave(_ *gorm.DB) error {
	e.Code = strings.TrimSpace(e.Code)
	e.ZoneCode = strings.TrimSpace(e.ZoneCode)
	e.ZoneName = strings.TrimSpace(e.ZoneName)
	e.Address = strings.TrimSpace(e.Address)
	if e.LocalityID != nil && *e.LocalityID == uuid.Nil {
		e.LocalityID = nil
	}
	return nil
}

// Institution receives disbursements. The natural key is the combination
// of code, establishment and name.
type Institution struct {
	DefaultModel
	EstablishmentID uuid.UUID     `json:"establishmentId" gorm:"type:char(36);uniqueIndex:institution_natural_key"`
	Establishment   Establishment `json:"-"`
	Code            string        `json:"code" gorm:"size:12;uniqueIndex:institution_natural_key" example:"1203"`
	Name            string        `json:"name" gorm:"size:500;uniqueIndex:institution_natural_key;index"`
	InstitutionType string        `json:"institutionType" gorm:"size:50" example:"OFICIAL"`
	PhoneNumber     string        `json:"phoneNumber" gorm:"size:50"`
	Website         string        `json:"website"`
	Email           string        `json:"email"`
}

// BeforeSave trims whitespace from string fields.
func (i *Institution) BeforeSave(_ *gorm.DB) error {
	i.Code = strings.TrimSpace(i.Code)
	i.Name = strings.TrimSpace(i.Name)
	i.InstitutionType = strings.TrimSpace(i.InstitutionType)
	i.PhoneNumber = strings.TrimSpace(i.PhoneNumber)
	i.Website = strings.TrimSpace(i.Website)
	i.Email = strings.TrimSpace(i.Email)
	return nil
}
