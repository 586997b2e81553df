package workbook

import (
	"strings"
	"time"

	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/educacion-transparente/backend/pkg/importer/helpers"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// noActivity is written into the receipt number column when the
// institution had no expenses to report.
const noActivity = "rendido sin movimiento"

// descriptionUnavailable is used for receipt items without description
// and without an account object.
const descriptionUnavailable = "No disponible"

// upsertDisbursement gets or creates the disbursement of a row. Existing
// disbursements are not modified, the other columns are only used when
// the disbursement is created.
func (p *Processor) upsertDisbursement(tx *gorm.DB, c *cache, r row, institution *models.Institution, resolution *models.Resolution) (*models.Disbursement, error) {
	fundsOrigin, err := c.resolveFundsOrigin(tx, r)
	if err != nil {
		return nil, err
	}

	originDetail, err := c.resolveOriginDetail(tx, r)
	if err != nil {
		return nil, err
	}

	paymentType, err := c.resolvePaymentType(tx, r)
	if err != nil {
		return nil, err
	}

	if date, ok := helpers.Date(r.cell(FieldDisbursementDate)); ok {
		c.disbursementDate = &date
	}
	date := c.disbursementDate

	defaults := models.Disbursement{
		ResolutionID:      resolution.ID,
		InstitutionID:     institution.ID,
		DisbursementDate:  date,
		ResolutionAmount:  helpers.Amount(r.cell(FieldResolutionAmount)),
		AmountDisbursed:   helpers.Amount(r.cell(FieldAmountDisbursed)),
		PrincipalName:     helpers.TextOrEmpty(r.cell(FieldPrincipalName)),
		PrincipalIssuedID: helpers.TextOrEmpty(r.cell(FieldPrincipalID)),
	}

	if fundsOrigin != nil {
		defaults.FundsOriginID = &fundsOrigin.ID
	}
	if originDetail != nil {
		defaults.OriginDetailID = &originDetail.ID
	}
	if paymentType != nil {
		defaults.PaymentTypeID = &paymentType.ID
	}

	if date != nil {
		due := p.options.DueDatePolicy.DueDate(*date)
		defaults.DueDate = &due
	}

	var disbursement models.Disbursement
	err = whereNullable(tx.Where("resolution_id = ? AND institution_id = ?", resolution.ID, institution.ID), "disbursement_date", date).
		Attrs(defaults).
		FirstOrCreate(&disbursement).Error
	if err != nil {
		return nil, err
	}

	c.disbursement = &disbursement
	return c.disbursement, nil
}

// upsertReport gets or creates the report for a disbursement. Reports are
// only created from rows that have a report date. Rows without one use the
// previous report if it belongs to the same disbursement.
func upsertReport(tx *gorm.DB, c *cache, r row, disbursement *models.Disbursement) (*models.Report, error) {
	reportDate, ok := helpers.Date(r.cell(FieldReportDate))
	if !ok {
		if c.report != nil && c.report.DisbursementID == disbursement.ID {
			return c.report, nil
		}
		return nil, nil
	}

	defaults := models.Report{
		DisbursementID: disbursement.ID,
		Status:         reportStatus(r),
		ReportDate:     &reportDate,
		DeliveredVia:   helpers.TextOrEmpty(r.cell(FieldDeliveredVia)),
		Comments:       helpers.TextOrEmpty(r.cell(FieldComments)),
	}

	var report models.Report
	err := tx.Where("disbursement_id = ?", disbursement.ID).
		Attrs(defaults).
		FirstOrCreate(&report).Error
	if err != nil {
		return nil, err
	}

	c.report = &report
	return c.report, nil
}

// reportStatus derives the status from the disbursed and reported amounts
// of the row, or from its balance column when one of them is missing.
func reportStatus(r row) models.ReportStatus {
	disbursed := helpers.Amount(r.cell(FieldAmountDisbursed))
	reported := helpers.Amount(r.cell(FieldReportedAmount))
	if disbursed.Valid && reported.Valid {
		return models.DeriveReportStatus(disbursed.Decimal, reported.Decimal)
	}

	balance := helpers.Amount(r.cell(FieldBalance))
	if balance.Valid {
		return models.DeriveReportStatusFromBalance(balance.Decimal)
	}
	return models.ReportStatusPending
}

// addReceiptItem gets or creates the receipt of a row and adds the row
// as a receipt item.
func (p *Processor) addReceiptItem(tx *gorm.DB, c *cache, r row, report *models.Report) error {
	number, _ := r.text(FieldReceiptNumber)
	if strings.EqualFold(number, noActivity) {
		log.Debug().Int("row", r.number).Msg("report without activity")
		return nil
	}

	if report == nil {
		return importer.DataQualityError(r.number, "the disbursement has no report, a report date is missing (column %s)", FieldReportDate)
	}

	receiptType, err := resolveReceiptType(tx, r)
	if err != nil {
		return err
	}

	if receiptType == nil {
		log.Debug().Int("row", r.number).Msg("no receipt type, skipping receipt")
		return nil
	}

	unitPrice := helpers.Currency(r.cell(FieldUnitPrice))
	if unitPrice == 0 {
		log.Debug().Int("row", r.number).Msg("no unit price, skipping receipt")
		return nil
	}

	object, err := resolveAccountObject(tx, r)
	if err != nil {
		return err
	}

	receipt, err := upsertReceipt(tx, r, report, receiptType, number)
	if err != nil {
		return err
	}

	hash := helpers.RowHash(p.sheet.Name, r.cells)
	if p.options.DedupeItems {
		var count int64
		err := tx.Model(&models.ReceiptItem{}).Where("receipt_id = ? AND import_hash = ?", receipt.ID, hash).Count(&count).Error
		if err != nil {
			return err
		}

		if count > 0 {
			log.Debug().Int("row", r.number).Msg("receipt item already imported")
			return nil
		}
	}

	description, _ := r.text(FieldDescription)
	if description == "" && object == nil {
		description = descriptionUnavailable
	}

	item := models.ReceiptItem{
		ReceiptID:     receipt.ID,
		AccountObject: object,
		Description:   description,
		UnitPrice:     decimal.NewFromInt(unitPrice),
		Quantity:      decimal.NewFromInt(1),
		ImportHash:    hash,
	}
	if object != nil {
		item.AccountObjectID = &object.ID
	}

	err = tx.Omit("Receipt", "AccountObject").Create(&item).Error
	if err != nil {
		return err
	}

	// The staged cache gets the refreshed copy, the committed one must not change
	refreshed := *report
	err = refreshed.RefreshStatus(tx)
	if err != nil {
		return err
	}

	c.report = &refreshed
	return nil
}

// upsertReceipt gets or creates a receipt by report, number, date and type.
func upsertReceipt(tx *gorm.DB, r row, report *models.Report, receiptType *models.ReceiptType, number string) (*models.Receipt, error) {
	var receiptDate *time.Time
	if d, ok := helpers.Date(r.cell(FieldReceiptDate)); ok {
		receiptDate = &d
	}

	var receipt models.Receipt
	err := whereNullable(tx.Where("report_id = ? AND receipt_type_id = ? AND receipt_number = ?", report.ID, receiptType.ID, number), "receipt_date", receiptDate).
		Attrs(models.Receipt{
			ReportID:      report.ID,
			ReceiptTypeID: receiptType.ID,
			ReceiptNumber: number,
			ReceiptDate:   receiptDate,
		}).
		FirstOrCreate(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
