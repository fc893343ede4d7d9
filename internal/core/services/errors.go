package services

import (
	"errors"
	"fmt"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// classify wraps err with op, adding sentinel unless err already carries it.
func classify(sentinel error, op string, err error) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, op, err)
}

// ledgerError marks a failure reading or writing the dedup ledger.
// Ingestion runs stop on it: later skip decisions could not be trusted.
type ledgerError struct {
	err error
}

func (e *ledgerError) Error() string { return e.err.Error() }
func (e *ledgerError) Unwrap() error { return e.err }

func wrapLedger(op string, err error) error {
	return &ledgerError{err: classify(domain.ErrStorage, op, err)}
}

// IsLedgerFailure reports whether err came from the dedup ledger.
func IsLedgerFailure(err error) bool {
	var le *ledgerError
	return errors.As(err, &le)
}
