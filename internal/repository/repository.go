package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrReferenceNotFound reports a write that pointed at a missing student or announcement.
var ErrReferenceNotFound = errors.New("referenced row not found")

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// QueryObserver receives query timings. MetricsService satisfies it.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveDBQuery(string, time.Duration) {}

func observerOrNop(obs QueryObserver) QueryObserver {
	if obs == nil {
		return nopObserver{}
	}
	return obs
}

// writeError classifies driver errors raised by inserts.
func writeError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return fmt.Errorf("%s: %w: %s", op, ErrReferenceNotFound, pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
