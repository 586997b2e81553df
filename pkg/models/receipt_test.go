package models_test

import (
	"time"

	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestProviderRUC() {
	err := suite.db.Create(&models.Provider{RUC: " 123 "}).Error
	suite.Assert().ErrorIs(err, models.ErrProviderRUCTooShort)

	provider := models.Provider{RUC: " 4567890-1 ", Name: " Librería Central "}
	suite.create(&provider)
	suite.Assert().Equal("4567890-1", provider.RUC)
	suite.Assert().Equal("Librería Central", provider.Name)
}

func (suite *TestSuiteStandard) TestReceiptCopiesReport() {
	disbursement := suite.createTestDisbursement(models.Disbursement{})
	report := suite.createTestReport(disbursement.ID)
	receipt := suite.createTestReceipt(report.ID, time.Date(2024, 5, 2, 13, 0, 0, 0, time.UTC))

	suite.Require().NotNil(receipt.DisbursementID)
	suite.Require().NotNil(receipt.InstitutionID)
	suite.Assert().Equal(disbursement.ID, *receipt.DisbursementID)
	suite.Assert().Equal(disbursement.InstitutionID, *receipt.InstitutionID)
	suite.Assert().Equal(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), *receipt.ReceiptDate)
}

func (suite *TestSuiteStandard) TestReceiptWithoutReport() {
	err := suite.db.Create(&models.Receipt{}).Error
	suite.Assert().ErrorIs(err, models.ErrReceiptWithoutReport)
}

func (suite *TestSuiteStandard) TestReceiptItemDefaults() {
	paper, _ := suite.createTestChart()

	disbursement := suite.createTestDisbursement(models.Disbursement{})
	report := suite.createTestReport(disbursement.ID)
	receipt := suite.createTestReceipt(report.ID, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))

	item := models.ReceiptItem{ReceiptID: receipt.ID, AccountObjectID: &paper.ID, UnitPrice: decimal.NewFromInt(35_000), Description: "   "}
	suite.create(&item)

	suite.Assert().Equal("Papel", item.Description)
	suite.Assert().True(item.Quantity.Equal(decimal.NewFromInt(1)))
	suite.Assert().True(item.Subtotal().Equal(decimal.NewFromInt(35_000)))
}
