package workbook

import (
	"time"

	"github.com/educacion-transparente/backend/pkg/importer/helpers"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// cache holds the most recently resolved entities. Rows in the workbooks
// leave cells blank when they belong to the same institution, resolution or
// disbursement as the row above, so blank cells resolve to these values.
//
// A cache is owned by one processor. Rows work on a copy that replaces the
// cache only when the row has been committed, so the pointers in here must
// never be modified in place.
type cache struct {
	institution      *models.Institution
	resolution       *models.Resolution
	fundsOrigin      *models.FundsOrigin
	originDetail     *models.OriginDetail
	paymentType      *models.PaymentType
	paymentTypes     helpers.PaymentTypeClassifier
	disbursementDate *time.Time
	disbursement     *models.Disbursement
	report           *models.Report
}

// row is a worksheet row with its layout.
type row struct {
	number int
	cells  []any
	layout Layout
}

func (r row) cell(f Field) any {
	return r.layout.Cell(r.cells, f)
}

func (r row) text(f Field) (string, bool) {
	return helpers.Text(r.cell(f))
}

// resolveInstitution finds the institution of a row by code, establishment
// code and name. Institutions are never created from a workbook, nil is
// returned when there is no unique match.
func (c *cache) resolveInstitution(tx *gorm.DB, r row) (*models.Institution, error) {
	code, hasCode := r.text(FieldInstitutionCode)
	establishmentCode, hasEstablishment := r.text(FieldEstablishmentCode)
	if !hasCode || !hasEstablishment {
		return c.institution, nil
	}

	name, hasName := r.text(FieldInstitutionName)

	// Codes are shared by several institutions, a different name is a
	// different institution
	if c.institution != nil && c.institution.Code == code && c.institution.Establishment.Code == establishmentCode &&
		(!hasName || helpers.Fold(name) == helpers.Fold(c.institution.Name)) {
		return c.institution, nil
	}

	var candidates []models.Institution
	err := tx.
		Preload("Establishment").
		Joins("JOIN establishments ON establishments.id = institutions.establishment_id").
		Where("institutions.code = ? AND establishments.code = ?", code, establishmentCode).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	// Names are compared without case and accents first, then exactly
	var matches []models.Institution
	for _, i := range candidates {
		if helpers.Fold(i.Name) == helpers.Fold(name) {
			matches = append(matches, i)
		}
	}

	if len(matches) > 1 {
		var exact []models.Institution
		for _, i := range matches {
			if i.Name == name {
				exact = append(exact, i)
			}
		}
		matches = exact
	}

	if len(matches) != 1 {
		log.Info().Int("row", r.number).Str("code", code).Str("establishment", establishmentCode).Str("name", name).Int("matches", len(matches)).Msg("institution not found")
		c.institution = nil
		return nil, nil
	}

	c.institution = &matches[0]
	return c.institution, nil
}

// resolveResolution gets or creates the resolution of a row. Rows without
// number and year use the previous resolution.
func (c *cache) resolveResolution(tx *gorm.DB, r row) (*models.Resolution, error) {
	number := optionalInt(r.cell(FieldResolutionNumber))
	year := optionalInt(r.cell(FieldResolutionYear))

	if number == nil && year == nil {
		return c.resolution, nil
	}

	if c.resolution != nil && c.resolution.Matches(number, year) {
		return c.resolution, nil
	}

	var resolution models.Resolution
	err := whereNullable(whereNullable(tx, "document_number", number), "document_year", year).
		Attrs(models.Resolution{DocumentNumber: number, DocumentYear: year}).
		FirstOrCreate(&resolution).Error
	if err != nil {
		return nil, err
	}

	c.resolution = &resolution
	return c.resolution, nil
}

// resolveFundsOrigin gets or creates the funds origin by its code.
func (c *cache) resolveFundsOrigin(tx *gorm.DB, r row) (*models.FundsOrigin, error) {
	code, ok := helpers.Int(r.cell(FieldFundsOrigin))
	if !ok {
		return c.fundsOrigin, nil
	}

	if c.fundsOrigin != nil && c.fundsOrigin.Code == code {
		return c.fundsOrigin, nil
	}

	var origin models.FundsOrigin
	err := tx.Where("code = ?", code).Attrs(models.FundsOrigin{Code: code}).FirstOrCreate(&origin).Error
	if err != nil {
		return nil, err
	}

	c.fundsOrigin = &origin
	return c.fundsOrigin, nil
}

// resolveOriginDetail gets or creates the origin detail by its name.
func (c *cache) resolveOriginDetail(tx *gorm.DB, r row) (*models.OriginDetail, error) {
	name, ok := r.text(FieldOriginDetail)
	if !ok {
		return c.originDetail, nil
	}

	if c.originDetail != nil && c.originDetail.Name == name {
		return c.originDetail, nil
	}

	var detail models.OriginDetail
	err := tx.Where("name = ?", name).Attrs(models.OriginDetail{Name: name}).FirstOrCreate(&detail).Error
	if err != nil {
		return nil, err
	}

	c.originDetail = &detail
	return c.originDetail, nil
}

// resolvePaymentType classifies the payment type column and gets or
// creates the payment type. Blank cells keep the previous type.
func (c *cache) resolvePaymentType(tx *gorm.DB, r row) (*models.PaymentType, error) {
	name := c.paymentTypes.Classify(r.cell(FieldPaymentType))
	if name == "" {
		return nil, nil
	}

	if c.paymentType != nil && c.paymentType.Name == name {
		return c.paymentType, nil
	}

	var paymentType models.PaymentType
	err := tx.Where("name = ?", name).Attrs(models.PaymentType{Name: name}).FirstOrCreate(&paymentType).Error
	if err != nil {
		return nil, err
	}

	c.paymentType = &paymentType
	return c.paymentType, nil
}

// resolveReceiptType gets or creates the title-cased receipt type. There
// is no carry-forward, blank cells have no receipt type.
func resolveReceiptType(tx *gorm.DB, r row) (*models.ReceiptType, error) {
	raw, ok := r.text(FieldReceiptType)
	if !ok {
		return nil, nil
	}
	name := helpers.Title(raw)

	var receiptType models.ReceiptType
	err := tx.Where("name = ?", name).Attrs(models.ReceiptType{Name: name}).FirstOrCreate(&receiptType).Error
	if err != nil {
		return nil, err
	}
	return &receiptType, nil
}

// resolveAccountObject finds the expenditure object by its key. Codes that
// are not numbers or do not exist mean "no category".
func resolveAccountObject(tx *gorm.DB, r row) (*models.AccountObject, error) {
	key, ok := helpers.Int(r.cell(FieldObjectCode))
	if !ok {
		return nil, nil
	}

	var objects []models.AccountObject
	// "key" is reserved in MySQL, map conditions quote the column
	err := tx.Where(map[string]any{"key": key}).Limit(1).Find(&objects).Error
	if err != nil {
		return nil, err
	}

	if len(objects) == 0 {
		log.Debug().Int("row", r.number).Int64("key", key).Msg("account object does not exist")
		return nil, nil
	}
	return &objects[0], nil
}

func optionalInt(v any) *int64 {
	i, ok := helpers.Int(v)
	if !ok {
		return nil
	}
	return &i
}

// whereNullable adds an equality condition that matches NULL for nil values.
func whereNullable[T any](tx *gorm.DB, column string, value *T) *gorm.DB {
	if value == nil {
		return tx.Where(column + " IS NULL")
	}
	return tx.Where(column+" = ?", *value)
}
