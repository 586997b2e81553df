package httputil

import "errors"

var (
	ErrInvalidUUID     = errors.New("the specified resource ID is not a valid UUID")
	ErrNoFilePost      = errors.New("you must send a file to this endpoint")
	ErrWrongFileSuffix = errors.New("this endpoint only supports files of the following types")
)
