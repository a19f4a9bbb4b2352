package contracts

import "errors"

// Error taxonomy shared by providers, the engine and the HTTP layer.
var (
	// ErrNoData means the ticker has no price or no options market. Terminal for a run.
	ErrNoData = errors.New("no data")

	// ErrFetchFailed means one expiry's chain could not be retrieved. That expiry contributes nothing.
	ErrFetchFailed = errors.New("chain fetch failed")

	// ErrEmptyAfterFilter means sanitization or OTM filtering left no usable legs for an expiry.
	ErrEmptyAfterFilter = errors.New("no eligible contracts after filtering")

	// ErrNoValidCombinations means every pairing failed the validity gate. Terminal for a run.
	ErrNoValidCombinations = errors.New("no valid combinations")

	// ErrNonFiniteFactor means ranking saw NaN or Inf in a scoring factor.
	ErrNonFiniteFactor = errors.New("non-finite scoring factor")

	// ErrInvalidRequest means the caller's parameters were rejected before any I/O.
	ErrInvalidRequest = errors.New("invalid request")
)
