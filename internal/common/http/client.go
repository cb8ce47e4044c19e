// internal/common/http/client.go
package http

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewClient returns a resty client for JSON APIs. Retries are disabled: a
// failed call surfaces to the caller and aborts the run.
func NewClient(timeout time.Duration, userAgent string) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)
}
