package workbook_test

import (
	"bytes"
	"context"
	"time"

	"github.com/educacion-transparente/backend/pkg/importer"
	"github.com/educacion-transparente/backend/pkg/importer/workbook"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	march = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april = time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	june  = time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
)

func disbursementRow(code int, name string, date time.Time) testRow {
	return testRow{
		workbook.FieldEstablishmentCode: 1001,
		workbook.FieldInstitutionCode:   code,
		workbook.FieldInstitutionName:   name,
		workbook.FieldPrincipalName:     "María González",
		workbook.FieldPrincipalID:       "1234567",
		workbook.FieldResolutionNumber:  1520,
		workbook.FieldResolutionAmount:  5000000,
		workbook.FieldResolutionYear:    2024,
		workbook.FieldFundsOrigin:       30,
		workbook.FieldOriginDetail:      "Gratuidad",
		workbook.FieldPaymentType:       "Transf. bancaria",
		workbook.FieldDisbursementDate:  date,
		workbook.FieldAmountDisbursed:   "Gs. 1.000.000",
	}
}

func withReport(r testRow, reported any) testRow {
	r[workbook.FieldReportDate] = june
	r[workbook.FieldReportedAmount] = reported
	r[workbook.FieldDeliveredVia] = "Mesa de entrada"
	return r
}

func receiptRow(number string, object any, description string, price any) testRow {
	return testRow{
		workbook.FieldReceiptType:   "FACTURA",
		workbook.FieldReceiptNumber: number,
		workbook.FieldObjectCode:    object,
		workbook.FieldDescription:   description,
		workbook.FieldReceiptDate:   april,
		workbook.FieldUnitPrice:     price,
	}
}

func merge(rows ...testRow) testRow {
	m := testRow{}
	for _, r := range rows {
		for k, v := range r {
			m[k] = v
		}
	}
	return m
}

func (suite *TestSuiteStandard) TestProcessDisbursements() {
	buf := suite.buildWorkbook("General", map[int]testRow{
		4: withReport(disbursementRow(1203, "ESCUELA BASICA N° 1", march), "Gs. 1.000.000"),
		// Same institution and resolution through merged cells
		5: {
			workbook.FieldDisbursementDate: april,
			workbook.FieldAmountDisbursed:  500000,
		},
	})

	result := suite.process(buf, workbook.DefaultOptions())
	suite.Assert().Equal(2, result.Applied)
	suite.Assert().Empty(result.Skipped)

	var disbursements []models.Disbursement
	suite.Require().Nil(suite.db.Order("disbursement_date").Find(&disbursements).Error)
	suite.Require().Len(disbursements, 2)

	for _, d := range disbursements {
		suite.Assert().Equal(suite.institution.ID, d.InstitutionID, "carry-forward must resolve the same institution")
		suite.Assert().Equal(disbursements[0].ResolutionID, d.ResolutionID)
		suite.Assert().NotNil(d.PaymentTypeID, "payment type must be carried forward")
		suite.Assert().NotNil(d.FundsOriginID, "funds origin must be carried forward")
	}

	first := disbursements[0]
	suite.Assert().Equal(march, *first.DisbursementDate)
	suite.Assert().Equal(models.DueDateFlat.DueDate(march), *first.DueDate)
	suite.Assert().True(first.AmountDisbursed.Decimal.Equal(decimal.NewFromInt(1000000)))
	suite.Assert().Equal("María González", first.PrincipalName)

	var paymentType models.PaymentType
	suite.Require().Nil(suite.db.First(&paymentType, "id = ?", *first.PaymentTypeID).Error)
	suite.Assert().Equal(models.PaymentTypeTransfer, paymentType.Name)

	var report models.Report
	suite.Require().Nil(suite.db.First(&report, "disbursement_id = ?", first.ID).Error)
	suite.Assert().Equal(models.ReportStatusFinished, report.Status)
	suite.Assert().Equal(suite.institution.ID, *report.InstitutionID)
	suite.Assert().Equal("Mesa de entrada", report.DeliveredVia)

	// No report date, no report
	suite.Assert().Equal(int64(1), suite.count(&models.Report{}))
}

func (suite *TestSuiteStandard) TestProcessReportStatus() {
	pending := withReport(disbursementRow(1203, "Escuela Básica N° 1", march), 400000)

	balance := withReport(disbursementRow(1204, "Colegio Nacional", march), nil)
	delete(balance, workbook.FieldReportedAmount)
	balance[workbook.FieldBalance] = 0

	buf := suite.buildWorkbook("General", map[int]testRow{4: pending, 5: balance})
	result := suite.process(buf, workbook.DefaultOptions())
	suite.Require().Equal(2, result.Applied)

	var report models.Report
	suite.Require().Nil(suite.db.First(&report, "institution_id = ?", suite.institution.ID).Error)
	suite.Assert().Equal(models.ReportStatusPending, report.Status)

	var other models.Report
	suite.Require().Nil(suite.db.First(&other, "institution_id = ?", suite.other.ID).Error)
	suite.Assert().Equal(models.ReportStatusFinished, other.Status)
}

func (suite *TestSuiteStandard) TestProcessIdempotent() {
	buf := suite.buildWorkbook("General", map[int]testRow{
		4: merge(withReport(disbursementRow(1203, "Escuela Básica N° 1", march), 0), receiptRow("001-001-0001234", 341, "", 35000)),
		5: receiptRow("001-001-0001234", 341, "Resmas", 15000),
		6: merge(withReport(disbursementRow(1204, "Colegio Nacional", march), 0), receiptRow("0099", "x", "", "Gs. 20.000")),
	})

	options := workbook.DefaultOptions()
	options.Receipts = true

	result := suite.process(buf, options)
	suite.Require().Empty(result.Skipped)
	suite.Require().Equal(3, result.Applied)

	suite.Assert().Equal(int64(2), suite.count(&models.Disbursement{}))
	suite.Assert().Equal(int64(2), suite.count(&models.Report{}))
	suite.Assert().Equal(int64(2), suite.count(&models.Receipt{}))
	suite.Assert().Equal(int64(3), suite.count(&models.ReceiptItem{}))

	// Parents are upserted, receipt items are added again
	suite.process(buf, options)
	suite.Assert().Equal(int64(1), suite.count(&models.Resolution{}))
	suite.Assert().Equal(int64(2), suite.count(&models.Disbursement{}))
	suite.Assert().Equal(int64(2), suite.count(&models.Report{}))
	suite.Assert().Equal(int64(2), suite.count(&models.Receipt{}))
	suite.Assert().Equal(int64(6), suite.count(&models.ReceiptItem{}))

	// With de-duplication, nothing changes
	options.DedupeItems = true
	suite.process(buf, options)
	suite.Assert().Equal(int64(6), suite.count(&models.ReceiptItem{}))
}

func (suite *TestSuiteStandard) TestProcessReceiptItems() {
	buf := suite.buildWorkbook("General", map[int]testRow{
		4: merge(withReport(disbursementRow(1203, "Escuela Básica N° 1", march), 0), receiptRow("0001", 341, "", 600000)),
		5: receiptRow("0002", "abc", "  ", "Gs. 400.000"),
		6: receiptRow("0003", 999, "Tiza", 0),
	})

	options := workbook.DefaultOptions()
	options.Receipts = true
	result := suite.process(buf, options)
	suite.Require().Empty(result.Skipped)

	var items []models.ReceiptItem
	suite.Require().Nil(suite.db.Order("unit_price DESC").Find(&items).Error)
	suite.Require().Len(items, 2, "items without unit price must be skipped")

	suite.Assert().Equal("Papel", items[0].Description)
	suite.Assert().Equal(suite.paper.ID, *items[0].AccountObjectID)
	suite.Assert().Equal("No disponible", items[1].Description)
	suite.Assert().Nil(items[1].AccountObjectID)
	suite.Assert().True(items[1].UnitPrice.Equal(decimal.NewFromInt(400000)))

	var receiptType models.ReceiptType
	suite.Require().Nil(suite.db.First(&receiptType).Error)
	suite.Assert().Equal("Factura", receiptType.Name)

	// 1,000,000 disbursed and fully substantiated by receipts
	var report models.Report
	suite.Require().Nil(suite.db.First(&report).Error)
	suite.Assert().Equal(models.ReportStatusFinished, report.Status)
}

func (suite *TestSuiteStandard) TestProcessNoActivity() {
	buf := suite.buildWorkbook("General", map[int]testRow{
		4: merge(withReport(disbursementRow(1203, "Escuela Básica N° 1", march), 0), receiptRow("  Rendido sin MOVIMIENTO ", 341, "", 35000)),
	})

	options := workbook.DefaultOptions()
	options.Receipts = true
	result := suite.process(buf, options)

	suite.Assert().Equal(1, result.Applied)
	suite.Assert().Empty(result.Skipped)
	suite.Assert().Equal(int64(1), suite.count(&models.Report{}))
	suite.Assert().Equal(int64(0), suite.count(&models.Receipt{}))
	suite.Assert().Equal(int64(0), suite.count(&models.ReceiptItem{}))
}

func (suite *TestSuiteStandard) TestProcessReceiptWithoutReport() {
	buf := suite.buildWorkbook("General", map[int]testRow{
		4: merge(disbursementRow(1203, "Escuela Básica N° 1", march), receiptRow("0001", 341, "", 35000)),
	})

	options := workbook.DefaultOptions()
	options.Receipts = true
	result := suite.process(buf, options)

	// The disbursement is kept, the receipt is reported
	suite.Assert().Equal(1, result.Applied)
	suite.Require().Len(result.Skipped, 1)
	suite.Assert().Equal(4, result.Skipped[0].Row)
	suite.Assert().Contains(result.Skipped[0].Reason, "no report")
	suite.Assert().Equal(int64(1), suite.count(&models.Disbursement{}))
	suite.Assert().Equal(int64(0), suite.count(&models.Receipt{}))
}

func (suite *TestSuiteStandard) TestProcessUnknownInstitution() {
	buf := suite.buildWorkbook("General", map[int]testRow{
		4: disbursementRow(1203, "Escuela Básica N° 1", march),
		5: disbursementRow(7777, "Escuela Inexistente", march),
		// Belongs to the unknown institution
		6: {workbook.FieldDisbursementDate: april},
	})

	result := suite.process(buf, workbook.DefaultOptions())
	suite.Assert().Equal(1, result.Applied)
	suite.Require().Len(result.Skipped, 2)
	suite.Assert().Equal(5, result.Skipped[0].Row)
	suite.Assert().Contains(result.Skipped[0].Reason, "7777")
	suite.Assert().Equal(6, result.Skipped[1].Row)
	suite.Assert().Equal(int64(1), suite.count(&models.Disbursement{}))
}

// Institutions sharing a code at the same establishment are told apart
// by name, also on consecutive rows.
func (suite *TestSuiteStandard) TestProcessSameCodeInstitutions() {
	technical := models.Institution{Code: "1203", Name: "Colegio Técnico", EstablishmentID: suite.institution.EstablishmentID}
	suite.create(&technical)

	// A blank name stays with the institution above
	unnamed := disbursementRow(1203, "", april)
	delete(unnamed, workbook.FieldInstitutionName)

	buf := suite.buildWorkbook("General", map[int]testRow{
		4: disbursementRow(1203, "Escuela Básica N° 1", march),
		5: disbursementRow(1203, "Colegio Técnico", march),
		6: unnamed,
		7: disbursementRow(1203, "COLEGIO TECNICO", june),
	})

	result := suite.process(buf, workbook.DefaultOptions())
	suite.Assert().Equal(4, result.Applied)
	suite.Assert().Empty(result.Skipped)

	var school, college int64
	suite.Require().Nil(suite.db.Model(&models.Disbursement{}).Where("institution_id = ?", suite.institution.ID).Count(&school).Error)
	suite.Require().Nil(suite.db.Model(&models.Disbursement{}).Where("institution_id = ?", technical.ID).Count(&college).Error)
	suite.Assert().Equal(int64(1), school)
	suite.Assert().Equal(int64(3), college)
}

func (suite *TestSuiteStandard) TestProcessBlankRowTermination() {
	rows := map[int]testRow{}
	for n := 4; n <= 10; n++ {
		rows[n] = disbursementRow(1203, "Escuela Básica N° 1", march.AddDate(0, 0, n))
	}
	rows[13] = disbursementRow(1204, "Colegio Nacional", march)

	result := suite.process(suite.buildWorkbook("General", rows), workbook.DefaultOptions())

	suite.Assert().Equal(workbook.Done, result.State)
	suite.Assert().Equal(12, result.LastRow)
	suite.Assert().Equal(7, result.Applied)
	suite.Assert().Equal(int64(7), suite.count(&models.Disbursement{}))

	var count int64
	suite.Require().Nil(suite.db.Model(&models.Disbursement{}).Where("institution_id = ?", suite.other.ID).Count(&count).Error)
	suite.Assert().Zero(count, "row 13 must never be reached")
}

func (suite *TestSuiteStandard) TestProcessSingleBlankRow() {
	result := suite.process(suite.buildWorkbook("General", map[int]testRow{
		4: disbursementRow(1203, "Escuela Básica N° 1", march),
		6: disbursementRow(1204, "Colegio Nacional", march),
	}), workbook.DefaultOptions())

	suite.Assert().Equal(2, result.Applied)
	suite.Assert().Equal(workbook.Scanning, result.State)
	suite.Assert().Equal(6, result.LastRow, "the window is clipped to the sheet dimension")
}

func (suite *TestSuiteStandard) TestProcessWindow() {
	options := workbook.DefaultOptions()
	options.FirstRow = 5
	options.LastRow = 5

	result := suite.process(suite.buildWorkbook("General", map[int]testRow{
		4: disbursementRow(1203, "Escuela Básica N° 1", march),
		5: disbursementRow(1204, "Colegio Nacional", march),
		6: disbursementRow(1203, "Escuela Básica N° 1", april),
	}), options)

	suite.Assert().Equal(1, result.Applied)
	suite.Assert().Equal(1, result.Scanned)

	var d models.Disbursement
	suite.Require().Nil(suite.db.First(&d).Error)
	suite.Assert().Equal(suite.other.ID, d.InstitutionID)
}

func (suite *TestSuiteStandard) TestProcessDueDatePolicy() {
	options := workbook.DefaultOptions()
	options.DueDatePolicy = models.DueDateSemester
	options.Sheet = "Rendiciones"

	suite.process(suite.buildWorkbook("Rendiciones", map[int]testRow{
		4: disbursementRow(1203, "Escuela Básica N° 1", march),
	}), options)

	var d models.Disbursement
	suite.Require().Nil(suite.db.First(&d).Error)
	suite.Assert().Equal(time.Date(2024, 9, 16, 0, 0, 0, 0, time.UTC), *d.DueDate)
}

func (suite *TestSuiteStandard) TestProcessMissingSheet() {
	buf := suite.buildWorkbook("Hoja1", map[int]testRow{4: disbursementRow(1203, "Escuela Básica N° 1", march)})

	_, err := workbook.NewProcessor(suite.db, bytes.NewReader(buf.Bytes()), workbook.DefaultOptions())
	suite.Require().NotNil(err)
	suite.Assert().Equal(importer.Structural, importer.KindOf(err))
	suite.Assert().Contains(err.Error(), `sheet "General" does not exist`)
}

func (suite *TestSuiteStandard) TestProcessNotAWorkbook() {
	_, err := workbook.NewProcessor(suite.db, bytes.NewReader([]byte("codigo;nombre\n1;2")), workbook.DefaultOptions())
	suite.Assert().Equal(importer.Structural, importer.KindOf(err))
}

func (suite *TestSuiteStandard) TestProcessInvalidWindow() {
	options := workbook.DefaultOptions()
	options.FirstRow = 10
	options.LastRow = 5

	_, err := workbook.NewProcessor(suite.db, bytes.NewReader(nil), options)
	suite.Assert().Equal(importer.Structural, importer.KindOf(err))
}

func (suite *TestSuiteStandard) TestProcessCanceled() {
	buf := suite.buildWorkbook("General", map[int]testRow{4: disbursementRow(1203, "Escuela Básica N° 1", march)})

	p, err := workbook.NewProcessor(suite.db, bytes.NewReader(buf.Bytes()), workbook.DefaultOptions())
	suite.Require().Nil(err)

	ctx, cancel := context.WithCancel(suite.T().Context())
	cancel()

	_, err = p.Process(ctx)
	suite.Assert().ErrorIs(err, context.Canceled)
	suite.Assert().Equal(int64(0), suite.count(&models.Disbursement{}))
}
