package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes that mean the transaction lost a concurrency race
// and is safe to retry from the top.
const (
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
)

// IsSerializationFailure reports whether err is a transaction conflict
// (serialization failure or deadlock) that a caller should retry with a
// fresh transaction rather than surface.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == serializationFailureCode || pgErr.Code == deadlockDetectedCode
}
