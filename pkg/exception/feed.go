package exception

import "errors"

// Feed errors
var (
	ErrFeedUnknownSource  = errors.New("feed: unknown source")
	ErrFeedInvalidPayload = errors.New("feed: invalid payload")
	ErrFeedNilBook        = errors.New("feed: nil top of book")
)
