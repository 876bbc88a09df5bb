package notify

import (
	"context"
	"strings"
	"time"

	"github.com/amoylab/taskflow/internal/apiserver/database"
	apperr "github.com/amoylab/taskflow/pkg/errors"
	"github.com/amoylab/taskflow/pkg/utils"
)

const maxSubscriptionUserAgent = 300

// SubscriptionInput is a browser push subscription as sent by the client
type SubscriptionInput struct {
	Endpoint  string
	P256dh    string
	Auth      string
	UserAgent string
}

// Subscribe creates or refreshes a subscription of the user. An existing
// subscription for the same endpoint is updated and reactivated.
func (d *Dispatcher) Subscribe(ctx context.Context, userID uint, in SubscriptionInput) (*database.PushSubscription, error) {
	endpoint := strings.TrimSpace(in.Endpoint)
	p256dh := strings.TrimSpace(in.P256dh)
	auth := strings.TrimSpace(in.Auth)
	if endpoint == "" || p256dh == "" || auth == "" {
		return nil, apperr.Invalid("subscription", "endpoint, p256dh and auth are required")
	}
	ua := utils.Truncate(in.UserAgent, maxSubscriptionUserAgent)

	var sub *database.PushSubscription
	err := d.db.Transaction(ctx, func(ctx context.Context) error {
		existing, err := d.db.GetPushSubscription(ctx, userID, endpoint)
		switch {
		case err == nil:
			sub = existing
		case apperr.KindOf(err) == apperr.KindNotFound:
			sub = &database.PushSubscription{UserID: userID, Endpoint: endpoint}
		default:
			return err
		}
		sub.P256dh = p256dh
		sub.Auth = auth
		sub.UserAgent = ua
		sub.Active = true
		sub.UpdatedAt = time.Now().UTC()
		return d.db.SavePushSubscription(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe deactivates a subscription. It reports whether one was found.
func (d *Dispatcher) Unsubscribe(ctx context.Context, userID uint, endpoint string) (bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return false, nil
	}
	found := false
	err := d.db.Transaction(ctx, func(ctx context.Context) error {
		sub, err := d.db.GetPushSubscription(ctx, userID, endpoint)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil
			}
			return err
		}
		found = true
		sub.Active = false
		sub.UpdatedAt = time.Now().UTC()
		return d.db.SavePushSubscription(ctx, sub)
	})
	return found, err
}
