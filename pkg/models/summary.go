package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DisbursementFilter restricts the disbursements that are summarized.
type DisbursementFilter struct {
	InstitutionID *uuid.UUID
	Year          *int // Year of the resolution
}

// DisbursementSummary contains the totals for a set of disbursements.
type DisbursementSummary struct {
	TotalDisbursed decimal.Decimal `json:"totalDisbursed" example:"15000000"`
	TotalReported  decimal.Decimal `json:"totalReported" example:"9750000"`
}

func (f DisbursementFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.InstitutionID != nil {
		tx = tx.Where("disbursements.institution_id = ?", *f.InstitutionID)
	}

	if f.Year != nil {
		tx = tx.Joins("JOIN resolutions ON resolutions.id = disbursements.resolution_id").
			Where("resolutions.document_year = ?", *f.Year)
	}
	return tx
}

// SummarizeDisbursements sums the disbursed amounts and the subtotals of all
// receipt items reported against the matching disbursements.
func SummarizeDisbursements(db *gorm.DB, filter DisbursementFilter) (DisbursementSummary, error) {
	var disbursed, reported decimal.NullDecimal

	err := filter.apply(db.Table("disbursements")).
		Select("SUM(disbursements.amount_disbursed)").
		Row().
		Scan(&disbursed)
	if err != nil {
		return DisbursementSummary{}, fmt.Errorf("summing disbursed amounts: %w", err)
	}

	err = filter.apply(db.Table("receipt_items").
		Joins("JOIN receipts ON receipts.id = receipt_items.receipt_id").
		Joins("JOIN reports ON reports.id = receipts.report_id").
		Joins("JOIN disbursements ON disbursements.id = reports.disbursement_id")).
		Select("SUM(receipt_items.quantity * receipt_items.unit_price)").
		Row().
		Scan(&reported)
	if err != nil {
		return DisbursementSummary{}, fmt.Errorf("summing reported amounts: %w", err)
	}

	return DisbursementSummary{
		TotalDisbursed: disbursed.Decimal,
		TotalReported:  reported.Decimal,
	}, nil
}

// ChartNode is an account object with the expenditure booked on it or
// on its descendants.
type ChartNode struct {
	Key              int             `json:"key" example:"300"`
	Value            string          `json:"value" example:"Bienes de consumo"`
	TotalExpenditure decimal.Decimal `json:"totalExpenditure" example:"1250000"`
	Children         []ChartNode     `json:"children"`
}

// AccountObjectChart returns the expenditure of an institution grouped by
// top-level category and subcategory. Only expenditure objects two levels
// below a top-level category are taken into account. When year is set, only
// receipts dated in that year are included.
func AccountObjectChart(db *gorm.DB, institutionID uuid.UUID, year *int) ([]ChartNode, error) {
	type leafTotal struct {
		AccountObjectID uuid.UUID
		Total           decimal.NullDecimal
	}

	query := db.Table("receipt_items").
		Joins("JOIN receipts ON receipts.id = receipt_items.receipt_id").
		Where("receipts.institution_id = ?", institutionID).
		Where("receipt_items.account_object_id IS NOT NULL")

	if year != nil {
		from := time.Date(*year, time.January, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("receipts.receipt_date >= ? AND receipts.receipt_date < ?", from, from.AddDate(1, 0, 0))
	}

	var totals []leafTotal
	err := query.
		Select("receipt_items.account_object_id AS account_object_id, SUM(receipt_items.quantity * receipt_items.unit_price) AS total").
		Group("receipt_items.account_object_id").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("summing expenditure per account object: %w", err)
	}

	if len(totals) == 0 {
		return []ChartNode{}, nil
	}

	var objects []AccountObject
	err = db.Find(&objects).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]AccountObject, len(objects))
	for _, o := range objects {
		byID[o.ID] = o
	}

	// top-level ID → subcategory ID → leaves
	tree := make(map[uuid.UUID]map[uuid.UUID][]ChartNode)
	for _, t := range totals {
		leaf, ok := byID[t.AccountObjectID]
		if !ok || leaf.ParentID == nil {
			continue
		}

		sub, ok := byID[*leaf.ParentID]
		if !ok || sub.ParentID == nil {
			continue
		}

		top, ok := byID[*sub.ParentID]
		if !ok || top.ParentID != nil {
			continue
		}

		if tree[top.ID] == nil {
			tree[top.ID] = make(map[uuid.UUID][]ChartNode)
		}
		tree[top.ID][sub.ID] = append(tree[top.ID][sub.ID], ChartNode{
			Key:              leaf.Key,
			Value:            leaf.Value,
			TotalExpenditure: t.Total.Decimal,
			Children:         []ChartNode{},
		})
	}

	chart := make([]ChartNode, 0, len(tree))
	for topID, subs := range tree {
		top := byID[topID]
		topNode := ChartNode{Key: top.Key, Value: top.Value, TotalExpenditure: decimal.Zero}

		for subID, leaves := range subs {
			sub := byID[subID]
			subNode := ChartNode{Key: sub.Key, Value: sub.Value, TotalExpenditure: decimal.Zero, Children: leaves}
			sortChart(subNode.Children)

			for _, leaf := range leaves {
				subNode.TotalExpenditure = subNode.TotalExpenditure.Add(leaf.TotalExpenditure)
			}

			topNode.TotalExpenditure = topNode.TotalExpenditure.Add(subNode.TotalExpenditure)
			topNode.Children = append(topNode.Children, subNode)
		}

		sortChart(topNode.Children)
		chart = append(chart, topNode)
	}

	sortChart(chart)
	return chart, nil
}

func sortChart(nodes []ChartNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Key < nodes[j].Key })
}
