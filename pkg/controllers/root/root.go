// Package root serves the entrypoint of the API.
package root

import (
	"net/http"

	"github.com/educacion-transparente/backend/pkg/httputil"
	"github.com/educacion-transparente/backend/pkg/models"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Links Links `json:"links"`
}

type Links struct {
	Healthz string `json:"healthz" example:"https://example.com/api/healthz"`             // Healthz endpoint
	Version string `json:"version" example:"https://example.com/api/version"`             // Version of the backend and the database in use
	Metrics string `json:"metrics" example:"https://example.com/api/metrics"`             // Prometheus metrics, including import counters
	Pprof   string `json:"pprof,omitempty" example:"https://example.com/api/debug/pprof"` // Runtime profiles, only when enabled
	V1      string `json:"v1" example:"https://example.com/api/v1"`                       // Imports and summaries
}

// RegisterRoutes registers the entrypoint. With profiling enabled, the
// pprof index is linked.
func RegisterRoutes(r *gin.RouterGroup, pprof bool) {
	r.GET("", Get(pprof))
	r.OPTIONS("", httputil.OptionsGet)
}

// Get returns the handler for the entrypoint
//
//	@Summary		API root
//	@Description	Entrypoint for the API, listing all endpoints
//	@Tags			General
//	@Success		200	{object}	Response
//	@Router			/ [get]
func Get(pprof bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		base := c.GetString(string(models.DBContextURL))

		links := Links{
			Healthz: base + "/healthz",
			Version: base + "/version",
			Metrics: base + "/metrics",
			V1:      base + "/v1",
		}
		if pprof {
			links.Pprof = base + "/debug/pprof"
		}

		c.JSON(http.StatusOK, Response{Links: links})
	}
}
