package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrInternal
	ErrInvalidFile
	ErrFileTooLarge
	ErrUnsupportedFormat
	ErrExtractionFailed
	ErrEmbeddingFailed
	ErrStoreUnavailable
	ErrAIUnavailable
	ErrTooMany
)
