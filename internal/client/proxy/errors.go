package proxy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/beanfeed/internal/common"
)

// ErrPartialBatch reports a multi-insert in which some items failed.
var ErrPartialBatch = errors.New("batch partially failed")

// errorForStatus maps an HTTP status back to the error kind the server
// reported with it.
func errorForStatus(status int, message string) error {
	var kind error
	switch status {
	case http.StatusUnauthorized:
		kind = common.ErrorUnauthorized
	case http.StatusForbidden:
		kind = common.ErrForbidden
	case http.StatusPreconditionFailed:
		kind = common.ErrPreconditionFailed
	case http.StatusNotFound:
		kind = common.ErrorNotFound
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		kind = common.ErrMalformedRequest
	default:
		kind = common.ErrorInternal
	}
	if message == "" || message == kind.Error() {
		return kind
	}
	return fmt.Errorf("%w: %s (status %d)", kind, message, status)
}
