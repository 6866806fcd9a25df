package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// ErrTransactionConflict is returned when two writers touched the same
// memory record and SurrealDB aborted one of them.
var ErrTransactionConflict = errors.New("transaction conflict")

const (
	conflictAttempts = 3
	conflictBackoff  = 50 * time.Millisecond
)

// classify maps SurrealDB query errors onto package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var qe *surrealdb.QueryError
	if errors.As(err, &qe) && strings.Contains(qe.Message, "Transaction conflict") {
		return fmt.Errorf("%w: %s", ErrTransactionConflict, qe.Message)
	}
	return err
}

// writeWithRetry runs write, repeating it with linear backoff while it keeps
// failing with a transaction conflict. Knowledge upserts for the same
// creature can race between the HTTP API and the MCP server.
func writeWithRetry(ctx context.Context, write func() error) error {
	var err error
	for attempt := 1; attempt <= conflictAttempts; attempt++ {
		err = classify(write())
		if !errors.Is(err, ErrTransactionConflict) {
			return err
		}
		if attempt == conflictAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(time.Duration(attempt) * conflictBackoff):
		}
	}
	return err
}
