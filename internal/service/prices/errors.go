package prices

import "errors"

var (
	ErrInvalidTimerange = errors.New("invalid timerange")
)
