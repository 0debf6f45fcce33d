package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/f1"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
)

// ExecFunc runs one DDL statement.
type ExecFunc func(ctx context.Context, statement string) error

// ResetSchema drops every table in Tables order, logging and skipping drop
// failures, then runs creates in order. It fails only when a create fails,
// and every create is still attempted.
func ResetSchema(ctx context.Context, exec ExecFunc, creates []string, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	for _, table := range Tables {
		if err := exec(ctx, DropStatement(table)); err != nil {
			logger.Warn("drop table failed", zap.String("table", table), zap.Error(err))
			continue
		}
		logger.Info("table dropped", zap.String("table", table))
	}

	var errs []error
	for _, stmt := range creates {
		if err := exec(ctx, stmt); err != nil {
			logger.Error("create table failed", zap.String("statement", firstLine(stmt)), zap.Error(err))
			errs = append(errs, err)
			continue
		}
	}
	if len(errs) > 0 {
		return &f1.DatabaseError{Op: "reset schema", Err: errors.Join(errs...)}
	}
	logger.Info("schema created", zap.Int("tables", len(creates)))
	return nil
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

// Wrap tags err with the store operation that failed.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *f1.DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	return &f1.DatabaseError{Op: op, Err: err}
}

// ErrNoRows is returned by lookups, wrapping f1.ErrNotFound.
func ErrNoRows(what string) error {
	return fmt.Errorf("%s: %w", what, f1.ErrNotFound)
}
