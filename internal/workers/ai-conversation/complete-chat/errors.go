// internal/workers/ai-conversation/complete-chat/errors.go
package completechat

import (
	"errors"
	"fmt"
	"net/http"

	"asha-assistant/internal/common/retry"
)

// ErrProviderTimeout is returned when a call does not finish inside its deadline.
var ErrProviderTimeout = errors.New("PROVIDER_TIMEOUT")

type Kind string

const (
	KindAuth      Kind = "auth"
	KindNetwork   Kind = "network"
	KindMalformed Kind = "malformed"
	KindTimeout   Kind = "timeout"
)

// ProviderError is a classified completion failure.
type ProviderError struct {
	Kind       Kind
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s error: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) IsRetryable() bool { return e.Retryable }

// KindOf classifies any error returned by Complete.
func KindOf(err error) Kind {
	if errors.Is(err, ErrProviderTimeout) {
		return KindTimeout
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindNetwork
}

func authError(status int, err error) *ProviderError {
	return &ProviderError{Kind: KindAuth, StatusCode: status, Err: err}
}

func malformedError(err error) *ProviderError {
	return &ProviderError{Kind: KindMalformed, Err: err}
}

func transportError(err error) *ProviderError {
	return &ProviderError{Kind: KindNetwork, Retryable: true, Err: err}
}

func statusError(status int, body string) *ProviderError {
	err := fmt.Errorf("%s: %s", http.StatusText(status), body)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return authError(status, err)
	}
	return &ProviderError{
		Kind:       KindNetwork,
		StatusCode: status,
		Retryable:  retry.IsRetryableHTTPStatus(status),
		Err:        err,
	}
}
