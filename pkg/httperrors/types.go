package httperrors

// HTTPError is the body of all error responses.
type HTTPError struct {
	Error string `json:"error" example:"structural error: sheet \"General\" does not exist in the workbook"`
}
