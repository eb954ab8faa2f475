package domain

import "errors"

// Sentinel errors for the domain rules. Services wrap these with context via
// fmt.Errorf("%w: ...") and the HTTP layer maps them to status codes with
// errors.Is.
var (
	// ErrValidation covers malformed input: bad emails, out-of-range expiry
	// days, blank codes, oversized names.
	ErrValidation = errors.New("workspace: invalid input")

	// ErrPolicyViolation covers structurally valid requests the workspace
	// rules forbid, such as inviting into a personal workspace.
	ErrPolicyViolation = errors.New("workspace: policy violation")

	// ErrAccessDenied is returned when the caller is not permitted to perform
	// the action, e.g. a non-owner minting invite codes.
	ErrAccessDenied = errors.New("workspace: access denied")

	// ErrInvitationState marks an illegal invitation state transition, such
	// as expiring an accepted invitation.
	ErrInvitationState = errors.New("workspace: illegal invitation state transition")

	// ErrCodeExpired is returned when an invite code's expiry has passed.
	ErrCodeExpired = errors.New("workspace: invite code expired")

	// ErrMemberState marks an illegal member status transition.
	ErrMemberState = errors.New("workspace: illegal member state transition")
)
