package delivery

import (
	"context"

	"github.com/teamspaceapp/teamspace/pkg/slogx"
)

// Publisher enqueues invitation IDs after their rows are committed. Enqueue
// failures are logged, not returned: the rows stay PENDING and the
// housekeeping sweep re-enqueues them later.
type Publisher struct {
	queue Queue
}

func NewPublisher(queue Queue) *Publisher {
	return &Publisher{queue: queue}
}

func (p *Publisher) PublishInvitations(ctx context.Context, invitationIDs []string) {
	log := slogx.FromContext(ctx)
	for _, id := range invitationIDs {
		if err := p.queue.Enqueue(ctx, id); err != nil {
			log.Warn("failed to enqueue invitation, leaving it for the recovery sweep",
				"invitation_id", id, "error", err)
		}
	}
}
