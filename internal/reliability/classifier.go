package reliability

import (
	"context"
	"errors"

	"github.com/asperduti/dimmi/internal/gateway"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsRetryableUpstream reports whether a failed upstream call might succeed
// if the user simply tries again. The gateway never retries on its own;
// this only shapes the retryable hint on error events.
func IsRetryableUpstream(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *gateway.UpstreamError
	if errors.As(err, &ue) {
		if ue.Status == 0 {
			// Transport failure with no vendor status.
			return true
		}
		return IsRetryableHTTPStatus(ue.Status)
	}
	return false
}
