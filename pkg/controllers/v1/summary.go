package v1

import (
	"net/http"

	"github.com/educacion-transparente/backend/pkg/httperrors"
	"github.com/educacion-transparente/backend/pkg/httputil"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/gin-gonic/gin"
)

func (co Controller) RegisterSummaryRoutes(r *gin.RouterGroup) {
	r.OPTIONS("/disbursements/summary", httputil.OptionsGet)
	r.GET("/disbursements/summary", co.GetDisbursementSummary)

	r.OPTIONS("/account-objects/chart", httputil.OptionsGet)
	r.GET("/account-objects/chart", co.GetAccountObjectChart)
}

type SummaryQuery struct {
	Institution string `form:"institution"` // ID of the institution
	Year        *int   `form:"year"`        // Year of the resolution, or of the receipts for the chart
}

type DisbursementSummaryResponse struct {
	Data models.DisbursementSummary `json:"data"`
}

type AccountObjectChartResponse struct {
	Data []models.ChartNode `json:"data"`
}

// institution parses the institution parameter and checks that the
// institution exists.
func (co Controller) institution(c *gin.Context, query SummaryQuery) (*models.Institution, bool) {
	id, err := httputil.UUIDFromString(query.Institution)
	if err != nil {
		httperrors.New(c, http.StatusBadRequest, err.Error())
		return nil, false
	}

	if id == nil {
		return nil, true
	}

	var institution models.Institution
	err = co.DB.First(&institution, "id = ?", *id).Error
	if err != nil {
		httperrors.Handler(c, err)
		return nil, false
	}
	return &institution, true
}

// GetDisbursementSummary returns the disbursed and reported totals
//
//	@Summary		Disbursement summary
//	@Description	Returns the total disbursed amount and the total of all receipt items reported against it
//	@Tags			Disbursements
//	@Produce		json
//	@Success		200			{object}	DisbursementSummaryResponse
//	@Failure		400			{object}	httperrors.HTTPError
//	@Failure		404			{object}	httperrors.HTTPError
//	@Param			institution	query		string	false	"Filter by institution ID"
//	@Param			year		query		int		false	"Filter by resolution year"
//	@Router			/v1/disbursements/summary [get]
func (co Controller) GetDisbursementSummary(c *gin.Context) {
	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperrors.InvalidQueryString(c)
		return
	}

	institution, ok := co.institution(c, query)
	if !ok {
		return
	}

	filter := models.DisbursementFilter{Year: query.Year}
	if institution != nil {
		filter.InstitutionID = &institution.ID
	}

	summary, err := models.SummarizeDisbursements(co.DB.WithContext(c.Request.Context()), filter)
	if err != nil {
		httperrors.Handler(c, err)
		return
	}

	c.JSON(http.StatusOK, DisbursementSummaryResponse{Data: summary})
}

// GetAccountObjectChart returns the expenditure per account object
//
//	@Summary		Account object chart
//	@Description	Returns the expenditure of an institution per top-level category and subcategory
//	@Tags			Disbursements
//	@Produce		json
//	@Success		200			{object}	AccountObjectChartResponse
//	@Failure		400			{object}	httperrors.HTTPError
//	@Failure		404			{object}	httperrors.HTTPError
//	@Param			institution	query		string	true	"ID of the institution"
//	@Param			year		query		int		false	"Only include receipts of this year"
//	@Router			/v1/account-objects/chart [get]
func (co Controller) GetAccountObjectChart(c *gin.Context) {
	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperrors.InvalidQueryString(c)
		return
	}

	institution, ok := co.institution(c, query)
	if !ok {
		return
	}

	if institution == nil {
		httperrors.New(c, http.StatusBadRequest, errInstitutionNotSet.Error())
		return
	}

	chart, err := models.AccountObjectChart(co.DB.WithContext(c.Request.Context()), institution.ID, query.Year)
	if err != nil {
		httperrors.Handler(c, err)
		return
	}

	c.JSON(http.StatusOK, AccountObjectChartResponse{Data: chart})
}
