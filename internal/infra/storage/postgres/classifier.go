package postgres

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vietddude/relay/internal/infra/rpc/retry"
)

// retryableStates are SQLSTATE codes for conditions a later attempt can clear.
var retryableStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
}

// Classifier marks transient PostgreSQL failures as retryable.
// Connection exceptions (class 08) and the states above retry, as do
// connectivity errors recognised by retry.DefaultClassifier.
var Classifier retry.Classifier = retry.ClassifierFunc(func(err error) retry.Classification {
	if err == nil {
		return retry.Terminal
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") || retryableStates[pgErr.Code] {
			return retry.Retryable
		}
		return retry.Terminal
	}

	if errors.Is(err, driver.ErrBadConn) {
		return retry.Retryable
	}

	return retry.DefaultClassifier.Classify(err)
})
