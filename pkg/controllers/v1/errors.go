package v1

import "errors"

var errInstitutionNotSet = errors.New("the institution query parameter must be set")

// Suffixes of uploaded files
var (
	workbookSuffixes = []string{".xlsx", ".xlsm"}
	csvSuffixes      = []string{".csv"}
)
