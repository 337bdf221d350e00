package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"roboreg/pkg/requestcontext"
)

// Store is the append-only sink the publisher writes to.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit fills in identity, timestamp and request correlation before appending.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if base.OccurredAt.IsZero() {
		base.OccurredAt = time.Now()
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}
	if base.Actor == "" {
		if admin := requestcontext.AdminID(ctx); admin != "" {
			base.Actor = admin
		} else if org := requestcontext.OrganisationID(ctx); org != "" {
			base.Actor = org.String()
		}
	}
	return p.store.Append(ctx, base)
}

// List returns the audit trail recorded for a subject.
func (p *Publisher) List(ctx context.Context, subject string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subject)
}
