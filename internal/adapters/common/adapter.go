package common

import (
	"context"

	"github.com/example/notification-service/internal/models"
)

// Adapter wraps one channel-specific transport behind a uniform send
// capability. Implementations translate the request into a provider payload
// and classify provider failures with the sentinel errors in this package.
// A nil error means the provider confirmed handoff.
type Adapter interface {
	Send(ctx context.Context, req *models.NotificationRequest) (*ProviderResponse, error)
}
