package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/store"
	"github.com/teamspaceapp/teamspace/pkg/cryptox"
	"github.com/teamspaceapp/teamspace/pkg/idx"
	"github.com/teamspaceapp/teamspace/pkg/slogx"
)

// codeGenerationAttempts bounds the collision retry loop when minting an
// invite code. Collisions over a 62^16 space are vanishingly rare; three
// attempts is plenty.
const codeGenerationAttempts = 3

// Publisher hands committed invitation IDs to the delivery pipeline. It
// must not fail the request path; enqueue errors are absorbed and the rows
// stay PENDING for the recovery sweep.
type Publisher interface {
	PublishInvitations(ctx context.Context, invitationIDs []string)
}

// AcceptOutcome distinguishes a fresh join from an accept by someone who is
// already in the workspace.
type AcceptOutcome string

const (
	OutcomeJoined        AcceptOutcome = "JOINED"
	OutcomeAlreadyMember AcceptOutcome = "ALREADY_MEMBER"
)

type AcceptResult struct {
	Outcome     AcceptOutcome
	WorkspaceID string
	MemberID    string
}

// CreateInvitationsResult reports one invitation batch: the minted code, the
// created rows, and the recipients skipped because they are already active
// members or already have an in-flight invitation.
type CreateInvitationsResult struct {
	InviteCode  domain.InviteCode
	Invitations []domain.Invitation
	Skipped     []string
}

type InvitationService struct {
	Store     store.Store
	Publisher Publisher
}

// CreateInvitations mints one invite code and a PENDING invitation per
// deduplicated recipient, commits them atomically, then enqueues the
// invitation IDs for delivery. A zero expiresInDays means the default.
func (s *InvitationService) CreateInvitations(ctx context.Context, userID, workspaceID string, emails []string, expiresInDays int) (CreateInvitationsResult, error) {
	log := slogx.FromContext(ctx)

	if expiresInDays == 0 {
		expiresInDays = domain.DefaultExpirationDays
	}
	if err := domain.ValidateExpirationDays(expiresInDays); err != nil {
		return CreateInvitationsResult{}, err
	}
	if len(emails) == 0 {
		return CreateInvitationsResult{}, fmt.Errorf("%w: at least one email is required", domain.ErrValidation)
	}

	// 1. Load the workspace and check the caller is its active owner.
	ws, err := s.Store.Workspaces().GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CreateInvitationsResult{}, ErrWorkspaceNotFound
		}
		return CreateInvitationsResult{}, err
	}
	owner, err := requireActiveOwner(ctx, s.Store, workspaceID, userID)
	if err != nil {
		return CreateInvitationsResult{}, err
	}
	if err := ws.EnsureInvitesAllowed(); err != nil {
		return CreateInvitationsResult{}, err
	}

	// 2. Normalize and deduplicate recipients, keeping request order.
	recipients, err := normalizeRecipients(emails)
	if err != nil {
		return CreateInvitationsResult{}, err
	}
	if len(recipients) > domain.MaxInvitationRecipients {
		return CreateInvitationsResult{}, fmt.Errorf("%w: at most %d recipients per batch", domain.ErrValidation, domain.MaxInvitationRecipients)
	}

	// 3. Drop recipients who are already active members or already have an
	// in-flight invitation.
	skip, err := s.emailsToSkip(ctx, workspaceID)
	if err != nil {
		return CreateInvitationsResult{}, err
	}
	var (
		targets []string
		skipped []string
	)
	for _, email := range recipients {
		if skip[email] {
			skipped = append(skipped, email)
			continue
		}
		targets = append(targets, email)
	}
	// Everyone was skipped: no code to mint, nothing to send.
	if len(targets) == 0 {
		log.Info("invitation batch fully skipped",
			slog.String("workspace_id", workspaceID),
			slog.Int("skipped", len(skipped)),
		)
		return CreateInvitationsResult{Skipped: skipped}, nil
	}

	// 4. Mint the code and the invitation rows in one transaction,
	// regenerating the code on the rare collision.
	now := time.Now().UTC()
	var (
		code        domain.InviteCode
		invitations []domain.Invitation
	)
	for attempt := 1; ; attempt++ {
		raw, err := cryptox.GenerateCode(domain.CodeLength)
		if err != nil {
			return CreateInvitationsResult{}, err
		}
		code, err = domain.NewInviteCode(idx.New().String(), ws, owner, raw, expiresInDays, now)
		if err != nil {
			return CreateInvitationsResult{}, err
		}

		invitations = invitations[:0]
		for _, email := range targets {
			inv, err := domain.NewInvitation(idx.New().String(), code, userID, email, now)
			if err != nil {
				return CreateInvitationsResult{}, err
			}
			invitations = append(invitations, inv)
		}

		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.InviteCodes().CreateInviteCode(ctx, code); err != nil {
				return err
			}
			for _, inv := range invitations {
				if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrAlreadyExists) && attempt < codeGenerationAttempts {
			log.Warn("invite code collision, regenerating", slog.Int("attempt", attempt))
			continue
		}
		log.Error("failed to create invitations", slog.Any("error", err))
		return CreateInvitationsResult{}, err
	}

	// 5. Enqueue only after the commit so the worker can never observe a
	// row that might still roll back.
	ids := make([]string, 0, len(invitations))
	for _, inv := range invitations {
		ids = append(ids, inv.ID)
	}
	s.Publisher.PublishInvitations(ctx, ids)

	log.Info("invitations created",
		slog.String("workspace_id", workspaceID),
		slog.String("invite_code_id", code.ID),
		slog.Int("invited", len(invitations)),
		slog.Int("skipped", len(skipped)),
	)
	return CreateInvitationsResult{InviteCode: code, Invitations: invitations, Skipped: skipped}, nil
}

// ResendInvitation supersedes every in-flight invitation for one recipient
// and issues a fresh code and invitation. The old rows become EXPIRED; the
// old code keeps working for anyone else it was sent to.
func (s *InvitationService) ResendInvitation(ctx context.Context, userID, workspaceID, email string, expiresInDays int) (CreateInvitationsResult, error) {
	log := slogx.FromContext(ctx)

	if expiresInDays == 0 {
		expiresInDays = domain.DefaultExpirationDays
	}
	if err := domain.ValidateExpirationDays(expiresInDays); err != nil {
		return CreateInvitationsResult{}, err
	}

	ws, err := s.Store.Workspaces().GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return CreateInvitationsResult{}, ErrWorkspaceNotFound
		}
		return CreateInvitationsResult{}, err
	}
	owner, err := requireActiveOwner(ctx, s.Store, workspaceID, userID)
	if err != nil {
		return CreateInvitationsResult{}, err
	}
	if err := ws.EnsureInvitesAllowed(); err != nil {
		return CreateInvitationsResult{}, err
	}

	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return CreateInvitationsResult{}, err
	}

	active, err := s.Store.Members().ListActiveMemberEmails(ctx, workspaceID)
	if err != nil {
		return CreateInvitationsResult{}, err
	}
	for _, memberEmail := range active {
		if memberEmail == normalized {
			return CreateInvitationsResult{}, fmt.Errorf("%w: recipient is already an active member", domain.ErrValidation)
		}
	}

	now := time.Now().UTC()
	var (
		code domain.InviteCode
		inv  domain.Invitation
	)
	for attempt := 1; ; attempt++ {
		raw, err := cryptox.GenerateCode(domain.CodeLength)
		if err != nil {
			return CreateInvitationsResult{}, err
		}
		code, err = domain.NewInviteCode(idx.New().String(), ws, owner, raw, expiresInDays, now)
		if err != nil {
			return CreateInvitationsResult{}, err
		}
		inv, err = domain.NewInvitation(idx.New().String(), code, userID, normalized, now)
		if err != nil {
			return CreateInvitationsResult{}, err
		}

		err = s.Store.WithTx(ctx, func(tx store.Tx) error {
			expired, err := tx.Invitations().ExpirePendingOrSent(ctx, workspaceID, normalized, now)
			if err != nil {
				return err
			}
			log.Debug("superseded in-flight invitations", slog.Int64("expired", expired))

			if err := tx.InviteCodes().CreateInviteCode(ctx, code); err != nil {
				return err
			}
			return tx.Invitations().CreateInvitation(ctx, inv)
		})
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrAlreadyExists) && attempt < codeGenerationAttempts {
			log.Warn("invite code collision, regenerating", slog.Int("attempt", attempt))
			continue
		}
		log.Error("failed to resend invitation", slog.Any("error", err))
		return CreateInvitationsResult{}, err
	}

	s.Publisher.PublishInvitations(ctx, []string{inv.ID})

	log.Info("invitation resent",
		slog.String("workspace_id", workspaceID),
		slog.String("invitation_id", inv.ID),
	)
	return CreateInvitationsResult{InviteCode: code, Invitations: []domain.Invitation{inv}}, nil
}

// AcceptInvitation redeems an invite code for the calling user. The code
// must be live, and an invitation must exist for the user's email. Joining,
// marking the invitation accepted and recording the code usage happen in
// one transaction.
func (s *InvitationService) AcceptInvitation(ctx context.Context, userID, code string) (AcceptResult, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	var result AcceptResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		inviteCode, err := tx.InviteCodes().GetInviteCodeByCode(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCodeNotFound
			}
			return err
		}
		if err := inviteCode.EnsureNotExpired(now); err != nil {
			return err
		}

		ws, err := tx.Workspaces().GetWorkspaceByID(ctx, inviteCode.WorkspaceID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrWorkspaceNotFound
			}
			return err
		}

		// Already an active member: nothing to change, the invitation row
		// is left as-is.
		existing, err := tx.Members().GetMember(ctx, ws.ID, user.ID)
		hasExisting := err == nil
		switch {
		case hasExisting && existing.IsActive():
			result = AcceptResult{Outcome: OutcomeAlreadyMember, WorkspaceID: ws.ID, MemberID: existing.ID}
			return nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}

		inv, err := tx.Invitations().GetInvitationByCodeAndEmail(ctx, code, user.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotInvited
			}
			return err
		}
		if err := inv.Accept(user.Email, inviteCode, now); err != nil {
			return err
		}

		var member domain.Member
		if hasExisting {
			// A LEFT or KICKED member rejoins through their old row.
			if err := existing.Restore(now); err != nil {
				return err
			}
			if err := tx.Members().UpdateMemberStatus(ctx, existing.ID, existing.Status, now); err != nil {
				return err
			}
			member = existing
		} else {
			member, err = domain.NewMember(idx.New().String(), ws, user.ID, now)
			if err != nil {
				return err
			}
			if err := tx.Members().CreateMember(ctx, member); err != nil {
				if errors.Is(err, store.ErrAlreadyExists) {
					result = AcceptResult{Outcome: OutcomeAlreadyMember, WorkspaceID: ws.ID}
					return nil
				}
				return err
			}
		}

		if err := tx.Invitations().MarkAccepted(ctx, inv.ID, now); err != nil {
			return err
		}

		usage, err := domain.NewInviteCodeUsage(idx.New().String(), inviteCode, member, now)
		if err != nil {
			return err
		}
		if err := tx.InviteCodeUsages().CreateUsage(ctx, usage); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return err
		}

		result = AcceptResult{Outcome: OutcomeJoined, WorkspaceID: ws.ID, MemberID: member.ID}
		return nil
	})
	if err != nil {
		return AcceptResult{}, err
	}

	log.Info("invitation accepted",
		slog.String("workspace_id", result.WorkspaceID),
		slog.String("outcome", string(result.Outcome)),
	)
	return result, nil
}

// ListInvitations returns every invitation in the workspace. Owner only.
func (s *InvitationService) ListInvitations(ctx context.Context, userID, workspaceID string) ([]domain.Invitation, error) {
	if _, err := s.Store.Workspaces().GetWorkspaceByID(ctx, workspaceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	if _, err := requireActiveOwner(ctx, s.Store, workspaceID, userID); err != nil {
		return nil, err
	}
	return s.Store.Invitations().ListInvitationsByWorkspace(ctx, workspaceID)
}

func (s *InvitationService) emailsToSkip(ctx context.Context, workspaceID string) (map[string]bool, error) {
	skip := make(map[string]bool)

	active, err := s.Store.Members().ListActiveMemberEmails(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for _, email := range active {
		skip[email] = true
	}

	inflight, err := s.Store.Invitations().ListPendingOrSentEmails(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for _, email := range inflight {
		skip[email] = true
	}
	return skip, nil
}

func normalizeRecipients(emails []string) ([]string, error) {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, raw := range emails {
		normalized, err := domain.NormalizeEmail(raw)
		if err != nil {
			return nil, err
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out, nil
}
