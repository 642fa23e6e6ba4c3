package exception

import "errors"

// General errors
var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNilInstance     = errors.New("nil instance")
	ErrInResponseError = errors.New("there is an error in response error field")
	ErrInvalidArgument = errors.New("invalid argument")
)
