// Package email renders and delivers invitation mail. The Sender interface
// keeps the provider swappable; the concrete implementation speaks the
// Resend HTTP API.
package email

import (
	"context"
	"fmt"
)

// Sender delivers a single HTML email and returns the provider message ID.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// APIError reports a non-2xx provider response. The body is kept verbatim
// for the logs; callers treat any send error the same way.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("email provider returned status %d: %s", e.StatusCode, e.Body)
}
