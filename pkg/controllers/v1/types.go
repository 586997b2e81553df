// Package v1 contains the handlers of the v1 API.
package v1

import (
	"github.com/educacion-transparente/backend/pkg/importer/workbook"
	"gorm.io/gorm"
)

// Controller holds the dependencies of the handlers.
type Controller struct {
	DB *gorm.DB

	// Workbook holds the options for uploaded workbooks. Query parameters
	// override them per request.
	Workbook workbook.Options
}
