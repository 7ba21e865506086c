package payment

import (
	"fmt"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
)

// ReconciliationError reports an infrastructure failure inside a payment
// transaction. Nothing of the operation was applied.
type ReconciliationError struct {
	Cause error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("%s: %v", httperr.CodeReconciliationFailed, e.Cause)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Cause
}

// reconciliationFailure lets business errors through and wraps the rest.
func reconciliationFailure(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := httperr.AsBusiness(err); ok {
		return err
	}
	return &ReconciliationError{Cause: err}
}
