package v1

import (
	"net/http"

	"github.com/educacion-transparente/backend/pkg/httputil"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all v1 routes on the group.
func (co Controller) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", Get)
	r.OPTIONS("", Options)

	co.RegisterImportRoutes(r.Group("/import"))
	co.RegisterSummaryRoutes(r)
}

type Response struct {
	Links Links `json:"links"` // Links for the v1 API
}

type Links struct {
	ImportWorkbook       string `json:"importWorkbook" example:"https://example.com/api/v1/import/workbook"`             // URL of the workbook import endpoint
	ImportEstablishments string `json:"importEstablishments" example:"https://example.com/api/v1/import/establishments"` // URL of the establishment import endpoint
	ImportInstitutions   string `json:"importInstitutions" example:"https://example.com/api/v1/import/institutions"`     // URL of the institution import endpoint
	DisbursementSummary  string `json:"disbursementSummary" example:"https://example.com/api/v1/disbursements/summary"`  // URL of the disbursement summary endpoint
	AccountObjectChart   string `json:"accountObjectChart" example:"https://example.com/api/v1/account-objects/chart"`   // URL of the account object chart endpoint
}

// Get returns the link list for v1
//
//	@Summary		v1 API
//	@Description	Returns general information about the v1 API
//	@Tags			v1
//	@Success		200	{object}	Response
//	@Router			/v1 [get]
func Get(c *gin.Context) {
	url := c.GetString(string(models.DBContextURL))

	c.JSON(http.StatusOK, Response{
		Links: Links{
			ImportWorkbook:       url + "/v1/import/workbook",
			ImportEstablishments: url + "/v1/import/establishments",
			ImportInstitutions:   url + "/v1/import/institutions",
			DisbursementSummary:  url + "/v1/disbursements/summary",
			AccountObjectChart:   url + "/v1/account-objects/chart",
		},
	})
}

// Options returns the allowed HTTP methods
//
//	@Summary		Allowed HTTP verbs
//	@Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
//	@Tags			v1
//	@Success		204
//	@Router			/v1 [options]
func Options(c *gin.Context) {
	httputil.OptionsGet(c)
}
