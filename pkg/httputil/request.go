package httputil

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UUIDFromString parses an optional UUID from a query parameter.
//
// This is needed because gin does not support form binding to uuid.UUID currently.
// Follow https://github.com/gin-gonic/gin/pull/3045 to see when this gets resolved.
func UUIDFromString(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}

	u, err := uuid.Parse(s)
	if err != nil {
		return nil, ErrInvalidUUID
	}

	return &u, nil
}

// UploadedFile returns the file sent in the "file" form field. The file
// name must end with one of the suffixes.
func UploadedFile(c *gin.Context, suffixes ...string) (multipart.File, error) {
	formFile, err := c.FormFile("file")
	if formFile == nil {
		return nil, ErrNoFilePost
	}

	if err != nil {
		return nil, err
	}

	name := strings.ToLower(formFile.Filename)
	matches := false
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			matches = true
			break
		}
	}

	if !matches {
		return nil, fmt.Errorf("%w: %s", ErrWrongFileSuffix, strings.Join(suffixes, ", "))
	}

	return formFile.Open()
}
