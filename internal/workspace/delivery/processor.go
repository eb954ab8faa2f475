package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/email"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/pkg/slogx"
)

// Outcome reports what the processor did with one dequeued invitation ID.
type Outcome string

const (
	// OutcomeSent means the email went out and the row is SENT.
	OutcomeSent Outcome = "SENT"
	// OutcomeFailed means the provider rejected the send and the row is FAILED.
	OutcomeFailed Outcome = "FAILED"
	// OutcomeCancelled means the code expired or the workspace vanished
	// before the send; the row is CANCELLED and no email went out.
	OutcomeCancelled Outcome = "CANCELLED"
	// OutcomeSkipped means the claim was lost: the row was not PENDING,
	// typically a duplicate queue delivery or an early accept.
	OutcomeSkipped Outcome = "SKIPPED"
)

// Processor handles a single invitation end to end: claim, render, send,
// record. The PENDING->SENDING claim makes duplicate queue deliveries
// harmless.
type Processor struct {
	store  store.Store
	sender email.Sender
	links  email.LinkBuilder
}

func NewProcessor(st store.Store, sender email.Sender, links email.LinkBuilder) *Processor {
	return &Processor{store: st, sender: sender, links: links}
}

func (p *Processor) Process(ctx context.Context, invitationID string) (Outcome, error) {
	log := slogx.FromContext(ctx).With("invitation_id", invitationID)
	now := time.Now().UTC()

	claimed, err := p.store.Invitations().ClaimForSending(ctx, invitationID, now)
	if err != nil {
		return "", err
	}
	if !claimed {
		log.Debug("invitation not pending, skipping")
		return OutcomeSkipped, nil
	}

	inv, err := p.store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		// Claimed but unreadable; the stale SENDING sweep will fail it.
		return "", err
	}

	code, err := p.store.InviteCodes().GetInviteCodeByID(ctx, inv.InviteCodeID)
	if err != nil {
		return "", err
	}

	ws, err := p.store.Workspaces().GetWorkspaceByID(ctx, inv.WorkspaceID)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("workspace gone before send, cancelling invitation")
		return OutcomeCancelled, p.store.Invitations().MarkCancelled(ctx, invitationID, now)
	}
	if err != nil {
		return "", err
	}

	if code.IsExpired(now) {
		log.Info("invite code expired before send, cancelling invitation")
		return OutcomeCancelled, p.store.Invitations().MarkCancelled(ctx, invitationID, now)
	}

	subject := email.InvitationSubject(ws.Name)
	body := email.InvitationBody(ws.Name, p.links.AcceptURL(code.Code))

	messageID, sendErr := p.sender.Send(ctx, inv.SentEmail, subject, body)
	if sendErr != nil {
		log.Error("invitation email send failed", "error", sendErr)
		if err := p.store.Invitations().MarkFailed(ctx, invitationID); err != nil {
			return "", err
		}
		return OutcomeFailed, nil
	}

	if err := p.store.Invitations().MarkSent(ctx, invitationID, time.Now().UTC()); err != nil {
		return "", err
	}
	log.Info("invitation email sent",
		"workspace_id", ws.ID, "status", string(domain.StatusSent), "message_id", messageID)
	return OutcomeSent, nil
}
