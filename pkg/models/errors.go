package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
)

// Integrity errors raised by model hooks or translated from constraint failures
var (
	ErrResolutionInUse        = errors.New("the resolution is referenced by disbursements and cannot be deleted")
	ErrResolutionNotUnique    = errors.New("a resolution with this document number and year already exists")
	ErrProviderRUCTooShort    = errors.New("the provider RUC must have at least 4 characters")
	ErrProviderRUCNotUnique   = errors.New("a provider with this RUC already exists")
	ErrAccountObjectCycle     = errors.New("the account object parent chain must not contain the object itself")
	ErrAccountObjectKeyInUse  = errors.New("an account object with this key already exists")
	ErrDisbursementNotUnique  = errors.New("a disbursement for this institution, resolution and date already exists")
	ErrReportNotUnique        = errors.New("the disbursement already has a report")
	ErrInstitutionNotUnique   = errors.New("an institution with this code and name already exists for the establishment")
	ErrReferenceDoesNotExist  = errors.New("a referenced resource does not exist")
	ErrReferencedResourceUsed = errors.New("the resource is still referenced by other resources")
	ErrReceiptWithoutReport   = errors.New("a receipt must belong to a report")
	ErrReportWithoutParent    = errors.New("a report must belong to a disbursement")
)
