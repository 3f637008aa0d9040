package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrTaskPanic          = fmt.Errorf("task panic")
	ErrStoreRead          = fmt.Errorf("store read failed")
	ErrStoreWrite         = fmt.Errorf("store write failed")
	ErrDocumentNotFound   = fmt.Errorf("document not found")
	ErrInvalidDraft       = fmt.Errorf("message draft requires text and author")
	ErrUnknownChange      = fmt.Errorf("unknown change type")
	ErrSubscriptionClosed = fmt.Errorf("subscription closed by the store")
	ErrProjectMismatch    = fmt.Errorf("project does not match the store")
)
