package models_test

import (
	"time"

	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestSummarizeDisbursements() {
	paper, cleaning := suite.createTestChart()

	disbursement := suite.createTestDisbursement(models.Disbursement{AmountDisbursed: amount(500_000)})
	report := suite.createTestReport(disbursement.ID)
	receipt := suite.createTestReceipt(report.ID, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))

	suite.create(&models.ReceiptItem{ReceiptID: receipt.ID, AccountObjectID: &paper.ID, UnitPrice: decimal.NewFromInt(100_000)})
	suite.create(&models.ReceiptItem{ReceiptID: receipt.ID, AccountObjectID: &cleaning.ID, UnitPrice: decimal.NewFromInt(25_000), Quantity: decimal.NewFromInt(2)})

	// A second institution with a resolution from another year
	other := suite.createTestInstitution("999", "Colegio Nacional")
	suite.createTestDisbursement(models.Disbursement{
		InstitutionID:   other.ID,
		ResolutionID:    suite.createTestResolution(3, 2023).ID,
		AmountDisbursed: amount(200_000),
	})

	summary, err := models.SummarizeDisbursements(suite.db, models.DisbursementFilter{})
	suite.Require().Nil(err)
	suite.Assert().True(summary.TotalDisbursed.Equal(decimal.NewFromInt(700_000)), summary.TotalDisbursed.String())
	suite.Assert().True(summary.TotalReported.Equal(decimal.NewFromInt(150_000)), summary.TotalReported.String())

	year := 2024
	summary, err = models.SummarizeDisbursements(suite.db, models.DisbursementFilter{InstitutionID: &disbursement.InstitutionID, Year: &year})
	suite.Require().Nil(err)
	suite.Assert().True(summary.TotalDisbursed.Equal(decimal.NewFromInt(500_000)), summary.TotalDisbursed.String())

	year = 2023
	summary, err = models.SummarizeDisbursements(suite.db, models.DisbursementFilter{InstitutionID: &disbursement.InstitutionID, Year: &year})
	suite.Require().Nil(err)
	suite.Assert().True(summary.TotalDisbursed.IsZero())
	suite.Assert().True(summary.TotalReported.IsZero())
}

func (suite *TestSuiteStandard) TestAccountObjectChart() {
	paper, cleaning := suite.createTestChart()

	disbursement := suite.createTestDisbursement(models.Disbursement{})
	report := suite.createTestReport(disbursement.ID)
	receipt := suite.createTestReceipt(report.ID, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	old := suite.createTestReceipt(report.ID, time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC))

	suite.create(&models.ReceiptItem{ReceiptID: receipt.ID, AccountObjectID: &paper.ID, UnitPrice: decimal.NewFromInt(100_000)})
	suite.create(&models.ReceiptItem{ReceiptID: receipt.ID, AccountObjectID: &cleaning.ID, UnitPrice: decimal.NewFromInt(25_000), Quantity: decimal.NewFromInt(2)})
	suite.create(&models.ReceiptItem{ReceiptID: old.ID, AccountObjectID: &paper.ID, UnitPrice: decimal.NewFromInt(1_000)})

	year := 2024
	chart, err := models.AccountObjectChart(suite.db, disbursement.InstitutionID, &year)
	suite.Require().Nil(err)
	suite.Require().Len(chart, 1)

	top := chart[0]
	suite.Assert().Equal(300, top.Key)
	suite.Assert().True(top.TotalExpenditure.Equal(decimal.NewFromInt(150_000)), top.TotalExpenditure.String())
	suite.Require().Len(top.Children, 1)
	suite.Require().Len(top.Children[0].Children, 2)
	suite.Assert().Equal(341, top.Children[0].Children[0].Key)
	suite.Assert().True(top.Children[0].Children[0].TotalExpenditure.Equal(decimal.NewFromInt(100_000)))

	chart, err = models.AccountObjectChart(suite.db, disbursement.InstitutionID, nil)
	suite.Require().Nil(err)
	suite.Assert().True(chart[0].TotalExpenditure.Equal(decimal.NewFromInt(151_000)), chart[0].TotalExpenditure.String())

	other := suite.createTestInstitution("999", "Colegio Nacional")
	chart, err = models.AccountObjectChart(suite.db, other.ID, nil)
	suite.Require().Nil(err)
	suite.Assert().Empty(chart)
}
