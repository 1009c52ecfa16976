package harvest

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("harvest: not found")
	ErrAlreadyExists = errors.New("harvest: already exists")
	ErrInvalidInput  = errors.New("harvest: invalid input")

	// Account errors
	ErrAccountNotFound = errors.New("harvest: account not found")
	ErrAccountExists   = errors.New("harvest: account already exists")
	ErrInvalidTier     = errors.New("harvest: invalid account tier")

	// Exchange errors
	ErrIllegalTierTransfer = errors.New("harvest: seller tier cannot sell to buyer tier")
	ErrInsufficientStock   = errors.New("harvest: insufficient stock")
	ErrInsufficientFunds   = errors.New("harvest: insufficient funds")
	ErrSelfExchange        = errors.New("harvest: seller and buyer are the same account")

	// Holding errors
	ErrAssetNotFound = errors.New("harvest: asset not found")

	// Chain errors
	ErrChainEmpty          = errors.New("harvest: chain is empty")
	ErrGenesisExists       = errors.New("harvest: genesis block already exists")
	ErrGenesisMissing      = errors.New("harvest: genesis block missing")
	ErrIntegrityViolation  = errors.New("harvest: chain integrity violation")
	ErrChainHalted         = errors.New("harvest: chain halted pending audit")
	ErrTransactionNotFound = errors.New("harvest: transaction not found")

	// Store errors
	ErrStoreNotReady      = errors.New("harvest: store not ready")
	ErrStoreClosed        = errors.New("harvest: store is closed")
	ErrStorageUnavailable = errors.New("harvest: storage unavailable")
	ErrMigrationFailed    = errors.New("harvest: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("harvest: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsValidationError returns true if the error is a recoverable, caller-facing
// rejection: the request was well-formed enough to evaluate but failed a
// business rule. Nothing was written to the stores or the chain.
func IsValidationError(err error) bool {
	var verr ValidationError
	if errors.As(err, &verr) {
		return true
	}
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidTier) ||
		errors.Is(err, ErrIllegalTierTransfer) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrSelfExchange) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrAccountExists)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrStorageUnavailable)
}

// IsFatal returns true if the error indicates the engine must not accept
// further appends until an operator intervenes.
func IsFatal(err error) bool {
	return errors.Is(err, ErrIntegrityViolation) ||
		errors.Is(err, ErrChainHalted)
}
