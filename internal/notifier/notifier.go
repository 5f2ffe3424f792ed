package notifier

import (
	"context"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
)

// Sink delivers a notification and reports the relay's HTTP status code.
// A non-2xx status or transport fault is returned as an error matching
// common.ErrDelivery.
type Sink interface {
	Send(ctx context.Context, target config.NotificationTarget, n models.Notification) (int, error)
}
