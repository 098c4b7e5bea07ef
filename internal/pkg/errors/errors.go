package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrConflict          = errors.New("conflict")
	ErrInternal          = errors.New("internal")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrEmbeddingService  = errors.New("embedding service error")
	ErrStoreUnavailable  = errors.New("vector store unavailable")
	ErrFileTooLarge      = errors.New("file too large")
	ErrAIUnavailable     = errors.New("ai not configured")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable reports whether the failure is transient per the error
// taxonomy: embedding transport faults and store outages may be
// retried, user errors and extraction failures may not.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEmbeddingService) || errors.Is(err, ErrStoreUnavailable)
}
