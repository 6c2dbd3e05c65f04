package interfaces

import (
	"context"

	"github.com/webguardai/webguard/internal/model"
)

// ResultStore is the narrow persistence contract for verdicts and callback
// delivery state. Verdicts are write-once: a request_id is never associated
// with two different verdicts. Lookups return (nil, nil) when absent.
type ResultStore interface {
	PutVerdict(ctx context.Context, v *model.Verdict) error
	GetVerdict(ctx context.Context, requestID string) (*model.Verdict, error)

	// GetVerdictByFingerprint returns the most recently computed verdict
	// for a URL fingerprint, used for short-circuit caching of repeat
	// requests.
	GetVerdictByFingerprint(ctx context.Context, fingerprint string) (*model.Verdict, error)

	// Delivery state is persisted alongside verdicts so callback retries
	// survive process restarts when the store is durable.
	PutDelivery(ctx context.Context, d *model.DeliveryState) error
	UpdateDelivery(ctx context.Context, d *model.DeliveryState) error
	GetDelivery(ctx context.Context, requestID string) (*model.DeliveryState, error)

	Close() error
}
