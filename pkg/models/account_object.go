package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxAccountObjectDepth bounds the walk up the parent chain. The chart of
// accounts has three levels.
const maxAccountObjectDepth = 16

// AccountObject is a node of the chart of accounts. Top-level categories
// contain subcategories which contain the expenditure objects receipt items
// are booked on.
type AccountObject struct {
	DefaultModel
	Key      int             `json:"key" gorm:"uniqueIndex" example:"341"`
	Value    string          `json:"value" gorm:"size:250" example:"Elementos de limpieza"`
	ParentID *uuid.UUID      `json:"parentId" gorm:"type:char(36);index"`
	Parent   *AccountObject  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Children []AccountObject `json:"-" gorm:"foreignKey:ParentID"`
}

// BeforeSave rejects parent chains that lead back to the object.
func (a *AccountObject) BeforeSave(tx *gorm.DB) error {
	a.Value = strings.TrimSpace(a.Value)

	if a.ParentID != nil && *a.ParentID == uuid.Nil {
		a.ParentID = nil
	}

	// New objects cannot be an ancestor of anything yet
	if a.ID == uuid.Nil || a.ParentID == nil {
		return nil
	}

	current := *a.ParentID
	for range maxAccountObjectDepth {
		if current == a.ID {
			return ErrAccountObjectCycle
		}

		var parent AccountObject
		err := tx.Select("id", "parent_id").First(&parent, "id = ?", current).Error
		if err != nil {
			return err
		}

		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}

	return ErrAccountObjectCycle
}

func (a AccountObject) String() string {
	return fmt.Sprintf("%d: %s", a.Key, a.Value)
}
