package hook

import "errors"

// Static errors for the hook package
var (
	ErrNilHandler       = errors.New("hook handler is nil")
	ErrInvalidSpec      = errors.New("invalid hook spec, expected Class::method or Class::method(selector)")
	ErrInvalidSelector  = errors.New("invalid selector condition")
	ErrMethodNotFound   = errors.New("no handler registered for method")
	ErrMethodNameEmpty  = errors.New("method name is empty")
	ErrMethodTypeNotSet = errors.New("method type is nil")
)
