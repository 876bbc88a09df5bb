package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/pkg/metrics"
	"github.com/amoylab/taskflow/pkg/trace"
)

// ErrBadJob marks a queue entry that can never be delivered
var ErrBadJob = errors.New("bad push job")

// Sender delivers one job to its device
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// LogSender only logs what it would deliver
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a dry-run sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("sender.dryrun")}
}

func (s *LogSender) Send(_ context.Context, job Job) error {
	s.logger.Info("(dry-run) would send push notification",
		zap.String("endpoint_host", endpointHost(job.Subscription.Endpoint)),
		zap.String("title", job.Payload.Notification.Title),
		zap.String("url", job.Payload.Notification.URL))
	return nil
}

// Worker drains the push queue into a Sender
type Worker struct {
	queue      Queue
	sender     Sender
	popTimeout time.Duration
	retryDelay time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewWorker creates a queue consumer. m may be nil.
func NewWorker(queue Queue, sender Sender, popTimeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Worker {
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	return &Worker{
		queue:      queue,
		sender:     sender,
		popTimeout: popTimeout,
		retryDelay: 2 * time.Second,
		logger:     logger.Named("worker"),
		metrics:    m,
	}
}

// Run consumes jobs until ctx is done. Queue errors are retried after a
// short delay; bad or undeliverable jobs are logged and skipped.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("push worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("push worker stopped")
			return nil
		}
		raw, err := w.queue.Pop(ctx, w.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to read push queue", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.retryDelay):
			}
			continue
		}
		if raw == nil {
			continue
		}
		if err := w.Process(ctx, raw); err != nil {
			w.logger.Warn("push job not delivered", zap.Error(err))
		}
	}
}

// Process delivers one encoded job
func (w *Worker) Process(ctx context.Context, raw []byte) error {
	span := trace.Tracer(cnst.TracePush).Start(ctx, cnst.SpanPushWorkerDeliv)
	defer span.End()

	if !gjson.ValidBytes(raw) {
		w.metrics.PushJob("failed")
		return fmt.Errorf("%w: not JSON", ErrBadJob)
	}
	endpoint := gjson.GetBytes(raw, "subscription.endpoint").String()
	if endpoint == "" {
		w.metrics.PushJob("failed")
		return fmt.Errorf("%w: missing subscription endpoint", ErrBadJob)
	}
	span.WithAttrs(attribute.String(cnst.AttrPushRecipient, endpointHost(endpoint)))

	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		w.metrics.PushJob("failed")
		return fmt.Errorf("%w: %v", ErrBadJob, err)
	}
	if err := w.sender.Send(span.Ctx, job); err != nil {
		span.RecordError(err)
		w.metrics.PushJob("failed")
		return fmt.Errorf("failed to send push: %w", err)
	}
	w.metrics.PushJob("delivered")
	return nil
}

func endpointHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}
