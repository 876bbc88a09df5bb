// Package ident allocates task numbers and converts them to and from the
// human readable task codes.
package ident

import (
	"context"
	"fmt"

	"github.com/amoylab/taskflow/internal/common/cnst"
	apperr "github.com/amoylab/taskflow/pkg/errors"
	"github.com/amoylab/taskflow/pkg/metrics"
	"github.com/amoylab/taskflow/pkg/trace"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Allocator hands out task numbers and their codes from an explicit Counter
type Allocator struct {
	counter Counter
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewAllocator creates an allocator. m may be nil.
func NewAllocator(counter Counter, logger *zap.Logger, m *metrics.Metrics) *Allocator {
	return &Allocator{
		counter: counter,
		logger:  logger.Named("ident"),
		metrics: m,
	}
}

// Allocate returns the next task number and its code. Once the code space
// is used up every call fails with ErrAllocationExhausted; numbers are
// never truncated or wrapped.
func (a *Allocator) Allocate(ctx context.Context) (int64, string, error) {
	span := trace.Tracer(cnst.TraceTask).Start(ctx, cnst.SpanIdentAllocate)
	defer span.End()

	n, err := a.counter.Next(span.Ctx)
	if err != nil {
		return 0, "", fmt.Errorf("failed to allocate task number: %w", err)
	}
	if n > MaxNumber {
		a.logger.Error("task number space exhausted",
			zap.Int64("task_num", n),
			zap.Int64("max", MaxNumber))
		a.metrics.AllocationExhausted()
		return 0, "", apperr.ErrAllocationExhausted.WithDetail("task_num", n)
	}
	code, err := Encode(n)
	if err != nil {
		return 0, "", err
	}
	span.WithAttrs(attribute.String(cnst.AttrTaskCode, code))
	return n, code, nil
}
