package interfaces

import (
	"context"
	"errors"
	"fmt"

	"LogoSync/internal/model"
)

// ErrNoResult the provider produced no usable image url
var ErrNoResult = errors.New("no image result")

// RateLimitError the provider answered 429 Too Many Requests
type RateLimitError struct {
	Provider model.ProviderName
	Status   int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (status %d)", e.Provider, e.Status)
}

// Is lets errors.Is(err, ErrNoResult) hold for rate limits too
func (e *RateLimitError) Is(target error) bool {
	return target == ErrNoResult
}

// IsRateLimited reports whether err carries a RateLimitError
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// ImageProvider every image-search provider implements this
type ImageProvider interface {
	GetName() model.ProviderName
	// SearchImage looks up a url-encoded phrase and returns one candidate image url.
	// It returns ErrNoResult (possibly wrapped) or *RateLimitError instead of an empty url.
	SearchImage(ctx context.Context, encodedQuery string) (string, error)
}
