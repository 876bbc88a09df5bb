// Package notify turns committed task mutations into push delivery jobs.
//
// The dispatcher never reports failures to the request that triggered it:
// Publish only hands an event to a background loop, and that loop logs and
// counts whatever goes wrong.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/amoylab/taskflow/internal/apiserver/database"
	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/amoylab/taskflow/internal/template"
	"github.com/amoylab/taskflow/pkg/metrics"
	"github.com/amoylab/taskflow/pkg/trace"
)

const testBody = "Test notification: you're all set."

// Dispatcher renders events into messages and queues one job per active
// subscription of the recipient
type Dispatcher struct {
	db       database.Database
	queue    Queue
	cfg      config.PushConfig
	baseURL  string
	renderer *template.Renderer
	logger   *zap.Logger
	metrics  *metrics.Metrics
	events   chan Event
}

// NewDispatcher creates a dispatcher. queue may be nil, which disables
// delivery like missing push credentials do. m may be nil.
func NewDispatcher(db database.Database, queue Queue, cfg config.PushConfig, baseURL string, logger *zap.Logger, m *metrics.Metrics) (*Dispatcher, error) {
	renderer := template.NewRenderer()
	for name, tmpl := range map[string]string{"title": cfg.Templates.Title, "body": cfg.Templates.Body, "url": cfg.Templates.URL} {
		if err := renderer.Parse(tmpl); err != nil {
			return nil, fmt.Errorf("invalid push %s template: %w", name, err)
		}
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		db:       db,
		queue:    queue,
		cfg:      cfg,
		baseURL:  baseURL,
		renderer: renderer,
		logger:   logger.Named("notify"),
		metrics:  m,
		events:   make(chan Event, size),
	}, nil
}

// Enabled reports whether jobs are produced at all
func (d *Dispatcher) Enabled() bool {
	return d.queue != nil && d.cfg.VAPIDPublicKey != "" && d.cfg.VAPIDPrivateKey != ""
}

// PublicKey returns the VAPID public key browsers subscribe with
func (d *Dispatcher) PublicKey() string {
	return d.cfg.VAPIDPublicKey
}

// Publish hands ev to the background loop without blocking. A full buffer
// drops the event. It reports whether the event was accepted.
func (d *Dispatcher) Publish(ev Event) bool {
	select {
	case d.events <- ev:
		d.metrics.PushEvent("accepted")
		return true
	default:
		d.metrics.PushEvent("dropped")
		d.logger.Warn("push event dropped, dispatcher buffer is full",
			zap.String("kind", string(ev.Kind)),
			zap.Uint("user_id", ev.UserID))
		return false
	}
}

// Run consumes published events until ctx is done
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("push dispatcher started", zap.Bool("enabled", d.Enabled()))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("push dispatcher stopped", zap.Int("pending", len(d.events)))
			return
		case ev := <-d.events:
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev Event) {
	span := trace.Tracer(cnst.TracePush).Start(ctx, cnst.SpanPushDispatch).
		WithAttrs(attribute.Int64(cnst.AttrPushRecipient, int64(ev.UserID)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			d.metrics.PushEvent("failed")
			d.logger.Error("panic while dispatching push event", zap.Any("panic", r))
		}
	}()

	msg, err := d.Render(ev)
	if err != nil {
		span.RecordError(err)
		d.metrics.PushEvent("failed")
		d.logger.Error("failed to render push message", zap.Uint("user_id", ev.UserID), zap.Error(err))
		return
	}
	if _, err := d.Notify(span.Ctx, ev.UserID, msg); err != nil {
		span.RecordError(err)
		d.metrics.PushEvent("failed")
		d.logger.Error("failed to queue push jobs", zap.Uint("user_id", ev.UserID), zap.Error(err))
	}
}

// Render builds the message for ev from the configured templates
func (d *Dispatcher) Render(ev Event) (Message, error) {
	tctx := template.NewContext(cnst.AppName, d.baseURL)
	tctx.Kind = string(ev.Kind)
	tctx.CompanySlug = ev.CompanySlug
	tctx.TaskCount = ev.TaskCount

	var msg Message
	var err error
	if msg.Title, err = d.renderer.Render(d.cfg.Templates.Title, tctx); err != nil {
		return Message{}, err
	}
	if msg.Body, err = d.renderer.Render(d.cfg.Templates.Body, tctx); err != nil {
		return Message{}, err
	}
	if msg.URL, err = d.renderer.Render(d.cfg.Templates.URL, tctx); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Notify queues msg for every active subscription of a user and returns
// how many jobs were queued. Without credentials or subscriptions it is a
// no-op.
func (d *Dispatcher) Notify(ctx context.Context, userID uint, msg Message) (int, error) {
	if !d.Enabled() {
		d.metrics.PushEvent("skipped")
		return 0, nil
	}
	subs, err := d.db.ListActivePushSubscriptions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	queued := 0
	for _, sub := range subs {
		data, err := json.Marshal(NewJob(sub, msg))
		if err != nil {
			d.metrics.PushJob("failed")
			return queued, fmt.Errorf("failed to encode push job: %w", err)
		}
		if err := d.queue.Push(ctx, data); err != nil {
			d.metrics.PushJob("failed")
			return queued, err
		}
		d.metrics.PushJob("queued")
		queued++
	}
	if queued > 0 {
		d.logger.Debug("queued push jobs", zap.Uint("user_id", userID), zap.Int("jobs", queued))
	}
	return queued, nil
}

// SendTest queues a fixed test message for the user. Failures are logged
// and reported as zero jobs.
func (d *Dispatcher) SendTest(ctx context.Context, userID uint) int {
	msg, err := d.Render(Event{Kind: "test", UserID: userID})
	if err != nil {
		d.logger.Error("failed to render test push message", zap.Error(err))
		return 0
	}
	msg.Body = testBody
	msg.URL = strings.TrimSuffix(d.baseURL, "/") + "/"

	n, err := d.Notify(ctx, userID, msg)
	if err != nil {
		d.metrics.PushEvent("failed")
		d.logger.Warn("failed to queue test push", zap.Uint("user_id", userID), zap.Error(err))
	}
	return n
}
