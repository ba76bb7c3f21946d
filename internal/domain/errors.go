package domain

import "errors"

// Validation errors reject a start command synchronously, without touching
// ticker state. Fetch errors are reported to clients but never stop the
// schedule.
var (
	ErrEmptySymbol      = errors.New("ticker symbol must not be empty")
	ErrIntervalTooShort = errors.New("interval below minimum")

	ErrSymbolNotFound = errors.New("symbol not found")
	ErrRateLimited    = errors.New("price source rate limited")
	ErrFetchFailed    = errors.New("price fetch failed")
)
