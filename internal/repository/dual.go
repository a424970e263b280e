package repository

import (
	"context"

	"socialdeck/internal/models"
	"socialdeck/internal/observability"
)

// WriteFunc writes one value to a store.
type WriteFunc[T any] func(ctx context.Context, v T) error

// DualWriter writes to a primary store and then, best effort, to a secondary
// one. A primary failure is returned as a PERSISTENCE_ERROR; a secondary
// failure is logged and counted only.
type DualWriter[T any] struct {
	key           func(T) string
	primaryName   string
	primary       WriteFunc[T]
	secondaryName string
	secondary     WriteFunc[T]
}

// NewDualWriter creates a DualWriter. key names a value in log lines;
// secondary may be nil.
func NewDualWriter[T any](key func(T) string, primaryName string, primary WriteFunc[T], secondaryName string, secondary WriteFunc[T]) *DualWriter[T] {
	return &DualWriter[T]{
		key:           key,
		primaryName:   primaryName,
		primary:       primary,
		secondaryName: secondaryName,
		secondary:     secondary,
	}
}

// Write stores v. The secondary is skipped when the primary fails.
func (w *DualWriter[T]) Write(ctx context.Context, v T) error {
	if err := w.primary(ctx, v); err != nil {
		observability.NewStoreLogger(w.primaryName).WithRole("primary").LogError(ctx, err, "write", w.key(v))
		observability.PersistenceFailures.WithLabelValues(w.primaryName, "primary").Inc()
		return models.NewPersistenceError(w.primaryName, err)
	}

	if w.secondary == nil {
		return nil
	}
	if err := w.secondary(ctx, v); err != nil {
		observability.NewStoreLogger(w.secondaryName).WithRole("secondary").LogError(ctx, err, "write", w.key(v))
		observability.PersistenceFailures.WithLabelValues(w.secondaryName, "secondary").Inc()
	}
	return nil
}
