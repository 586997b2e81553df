package version

import (
	"net/http"

	"github.com/educacion-transparente/backend/pkg/httputil"
	"github.com/gin-gonic/gin"
)

type Response struct {
	Data Object `json:"data"` // Data object for the version endpoint
}

type Object struct {
	Version  string `json:"version" example:"1.1.0"`  // The running version of the backend
	Database string `json:"database" example:"mysql"` // The database driver in use
}

// RegisterRoutes registers the version endpoint. Version is set at build
// time, see Makefile.
func RegisterRoutes(r *gin.RouterGroup, version, database string) {
	r.GET("", Get(Object{Version: version, Database: database}))
	r.OPTIONS("", Options)
}

// @Summary		Allowed HTTP verbs
// @Description	Returns an empty response with the HTTP Header "allow" set to the allowed HTTP verbs
// @Tags			General
// @Success		204
// @Router			/version [options]
func Options(c *gin.Context) {
	httputil.OptionsGet(c)
}

// @Summary		API version
// @Description	Returns the software version of the API and the database driver
// @Tags			General
// @Success		200	{object}	Response
// @Router			/version [get]
func Get(object Object) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{Data: object})
	}
}
