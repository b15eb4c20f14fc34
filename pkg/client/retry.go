package client

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/pkg/errors"
)

const retryBackoff = 100 * time.Millisecond

// StatusError is a non 2xx answer of a search backend
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend answered %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// transientClassifier retries overload answers and broken connections,
// everything else fails at once
type transientClassifier struct{}

func (transientClassifier) Classify(err error) retrier.Action {
	if err == nil {
		return retrier.Succeed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retrier.Fail
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500 {
			return retrier.Retry
		}
		return retrier.Fail
	}
	if errors.Is(err, driver.ErrBadConn) {
		return retrier.Retry
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return retrier.Retry
	}
	return retrier.Fail
}

func newRetrier(retries int) *retrier.Retrier {
	if retries < 0 {
		retries = 0
	}
	return retrier.New(retrier.ExponentialBackoff(retries, retryBackoff), transientClassifier{})
}
