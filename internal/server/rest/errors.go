package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/beanfeed/internal/common"
	"github.com/dmitrijs2005/beanfeed/internal/feed"
	"github.com/dmitrijs2005/beanfeed/internal/transport"
)

// StatusOf maps an error to the HTTP status reported for it.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, transport.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrMalformedRequest), errors.Is(err, feed.ErrMalformedDocument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageOf is the text sent for err; internal causes are not disclosed.
func messageOf(err error) string {
	if StatusOf(err) == http.StatusInternalServerError {
		return common.ErrorInternal.Error()
	}
	return err.Error()
}
