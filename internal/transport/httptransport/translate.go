package httptransport

import (
	"errors"

	"github.com/toannhu96/gia-vang-365/internal/ports/errcode"
	"github.com/toannhu96/gia-vang-365/internal/service/prices"
)

func FromServiceError(err error) errcode.Code {
	switch {
	case errors.Is(err, prices.ErrInvalidTimerange):
		return errcode.BadRequest
	default:
		return errcode.Internal
	}
}
