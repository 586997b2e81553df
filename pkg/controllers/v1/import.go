package v1

import (
	"net/http"

	"github.com/educacion-transparente/backend/pkg/httperrors"
	"github.com/educacion-transparente/backend/pkg/httputil"
	"github.com/educacion-transparente/backend/pkg/importer/reference"
	"github.com/educacion-transparente/backend/pkg/importer/workbook"
	"github.com/gin-gonic/gin"
)

// RegisterImportRoutes registers the routes for imports with
// the RouterGroup that is passed.
func (co Controller) RegisterImportRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/workbook", httputil.OptionsPost)
	r.POST("/workbook", co.ImportWorkbook)

	r.OPTIONS("/establishments", httputil.OptionsPost)
	r.POST("/establishments", co.importReference(reference.ModeEstablishments))

	r.OPTIONS("/institutions", httputil.OptionsPost)
	r.POST("/institutions", co.importReference(reference.ModeInstitutions))
}

// ImportWorkbook imports an accountability workbook
//
//	@Summary		Import workbook
//	@Description	Imports disbursements and reports, and with receipts=true also receipts, from an accountability workbook
//	@Tags			Import
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		200			{object}	WorkbookImportResponse
//	@Failure		400			{object}	httperrors.HTTPError
//	@Failure		500			{object}	httperrors.HTTPError
//	@Param			file		formData	file	true	"File to import"
//	@Param			receipts	query		bool	false	"Import receipts"
//	@Param			sheet		query		string	false	"Name of the worksheet"
//	@Param			firstRow	query		int		false	"First row to import"
//	@Param			lastRow		query		int		false	"Last row to import"
//	@Param			dedupeItems	query		bool	false	"Skip receipt items imported from an identical row before. Without it, importing a workbook again adds its receipt items again"
//	@Router			/v1/import/workbook [post]
func (co Controller) ImportWorkbook(c *gin.Context) {
	var query WorkbookImportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperrors.InvalidQueryString(c)
		return
	}

	f, err := httputil.UploadedFile(c, workbookSuffixes...)
	if err != nil {
		httperrors.New(c, http.StatusBadRequest, err.Error())
		return
	}
	defer f.Close()

	p, err := workbook.NewProcessor(co.DB, f, query.options(co.Workbook))
	if err != nil {
		httperrors.Handler(c, err)
		return
	}

	result, err := p.Process(c.Request.Context())
	if err != nil {
		httperrors.Handler(c, err)
		return
	}

	c.JSON(http.StatusOK, WorkbookImportResponse{Data: result})
}

// importReference returns the handler for a census CSV import
//
//	@Summary		Import establishments or institutions
//	@Description	Imports establishments with their locations, or institutions, from a CSV file of the education census
//	@Tags			Import
//	@Accept			multipart/form-data
//	@Produce		json
//	@Success		200		{object}	ReferenceImportResponse
//	@Failure		400		{object}	httperrors.HTTPError
//	@Failure		500		{object}	httperrors.HTTPError
//	@Param			file	formData	file	true	"File to import"
//	@Router			/v1/import/establishments [post]
//	@Router			/v1/import/institutions [post]
func (co Controller) importReference(mode reference.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := httputil.UploadedFile(c, csvSuffixes...)
		if err != nil {
			httperrors.New(c, http.StatusBadRequest, err.Error())
			return
		}
		defer f.Close()

		i, err := reference.New(co.DB, f, mode)
		if err != nil {
			httperrors.Handler(c, err)
			return
		}

		skipped, err := i.Process(c.Request.Context())
		if err != nil {
			httperrors.Handler(c, err)
			return
		}

		c.JSON(http.StatusOK, ReferenceImportResponse{Data: ReferenceImport{Skipped: skipped}})
	}
}
