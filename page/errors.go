package page

import "errors"

// Static errors for the page package
var (
	ErrPageNil      = errors.New("page is nil")
	ErrPageDetached = errors.New("page is not attached to a store")
	ErrPageNotSaved = errors.New("page has no id yet")
	ErrForeignPage  = errors.New("page belongs to another store")
	ErrNoEditedPage = errors.New("editor has no page")
)
