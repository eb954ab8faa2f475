package domain

import (
	"fmt"
	"strings"
	"time"
)

const emailMaxLength = 320

// MaxInvitationRecipients caps one create batch.
const MaxInvitationRecipients = 20

type InvitationStatus string

// Invitation delivery/acceptance states.
//
//	PENDING  -> SENDING            claimed by the delivery worker
//	SENDING  -> SENT | FAILED      outcome of the provider call
//	SENDING  -> CANCELLED          code already expired when the worker got there
//	PENDING/SENT/FAILED -> ACCEPTED
//	PENDING/SENT -> EXPIRED        superseded by a resend
//
// ACCEPTED, CANCELLED and EXPIRED are terminal.
const (
	StatusPending   InvitationStatus = "PENDING"
	StatusSending   InvitationStatus = "SENDING"
	StatusSent      InvitationStatus = "SENT"
	StatusAccepted  InvitationStatus = "ACCEPTED"
	StatusFailed    InvitationStatus = "FAILED"
	StatusCancelled InvitationStatus = "CANCELLED"
	StatusExpired   InvitationStatus = "EXPIRED"
)

// Invitation is the per-recipient record tracking delivery and acceptance of
// one invite code. Its delivery status is independent of the code's
// validity: a FAILED invitation with a live code can still be accepted.
type Invitation struct {
	ID           string
	InviteCodeID string
	WorkspaceID  string
	SentEmail    string // normalized
	Status       InvitationStatus
	CreatedBy    string // user ID of the inviting owner
	CreatedAt    time.Time
	SentAt       *time.Time
	AcceptedAt   *time.Time
	ExpiredAt    *time.Time
}

// NewInvitation builds a PENDING invitation for a recipient. The code must
// still be live at creation time.
func NewInvitation(id string, code InviteCode, createdBy, email string, now time.Time) (Invitation, error) {
	if err := code.EnsureNotExpired(now); err != nil {
		return Invitation{}, err
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return Invitation{}, err
	}
	return Invitation{
		ID:           id,
		InviteCodeID: code.ID,
		WorkspaceID:  code.WorkspaceID,
		SentEmail:    normalized,
		Status:       StatusPending,
		CreatedBy:    createdBy,
		CreatedAt:    now,
	}, nil
}

// BeginSending claims the invitation for delivery. Only a PENDING invitation
// can be claimed; the storage layer enforces the same guard as a conditional
// update so exactly one worker wins.
func (i *Invitation) BeginSending() error {
	if i.Status != StatusPending {
		return fmt.Errorf("%w: only pending invitations can be claimed for sending (was %s)", ErrInvitationState, i.Status)
	}
	i.Status = StatusSending
	return nil
}

// MarkSent records a successful provider send.
func (i *Invitation) MarkSent(now time.Time) error {
	if i.Status != StatusSending {
		return fmt.Errorf("%w: only a claimed invitation can be marked sent (was %s)", ErrInvitationState, i.Status)
	}
	i.Status = StatusSent
	i.SentAt = &now
	return nil
}

// MarkFailed records a provider failure. The invitation stays acceptable and
// eligible for resend.
func (i *Invitation) MarkFailed() error {
	if i.Status != StatusSending {
		return fmt.Errorf("%w: only a claimed invitation can be marked failed (was %s)", ErrInvitationState, i.Status)
	}
	i.Status = StatusFailed
	return nil
}

// MarkCancelled records that the invite code had already expired when the
// delivery worker picked the invitation up: no email will ever be attempted.
func (i *Invitation) MarkCancelled(now time.Time) error {
	if i.Status != StatusSending {
		return fmt.Errorf("%w: only a claimed invitation can be cancelled (was %s)", ErrInvitationState, i.Status)
	}
	i.Status = StatusCancelled
	i.ExpiredAt = &now
	return nil
}

// Accept transitions the invitation to ACCEPTED. Delivery need not have
// succeeded: a recipient who already knows the code may accept before the
// email lands, or after a failed send.
func (i *Invitation) Accept(acceptingEmail string, code InviteCode, now time.Time) error {
	switch i.Status {
	case StatusPending, StatusSent, StatusFailed:
	default:
		return fmt.Errorf("%w: invitation cannot be accepted from %s", ErrInvitationState, i.Status)
	}
	if err := code.EnsureNotExpired(now); err != nil {
		return err
	}
	normalized, err := NormalizeEmail(acceptingEmail)
	if err != nil {
		return err
	}
	if i.SentEmail != normalized {
		return fmt.Errorf("%w: invitation can only be accepted by the invited email address", ErrValidation)
	}
	i.Status = StatusAccepted
	i.AcceptedAt = &now
	return nil
}

// Expire marks the invitation superseded by a resend or an expiry sweep.
// Accepted invitations are immutable; expiring twice is a no-op.
func (i *Invitation) Expire(now time.Time) error {
	if i.Status == StatusAccepted {
		return fmt.Errorf("%w: accepted invitations cannot expire", ErrInvitationState)
	}
	if i.Status == StatusExpired {
		return nil
	}
	i.Status = StatusExpired
	i.ExpiredAt = &now
	return nil
}

// NormalizeEmail trims, lower-cases and validates a recipient address. Every
// boundary (create, resend, accept) goes through this so state machine guards
// compare like-for-like values.
func NormalizeEmail(raw string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", fmt.Errorf("%w: email must not be blank", ErrValidation)
	}
	if len(normalized) > emailMaxLength {
		return "", fmt.Errorf("%w: email must not exceed %d characters", ErrValidation, emailMaxLength)
	}
	if !strings.Contains(normalized, "@") {
		return "", fmt.Errorf("%w: email must contain '@'", ErrValidation)
	}
	return normalized, nil
}
