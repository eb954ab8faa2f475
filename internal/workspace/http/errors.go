package http

import (
	"errors"
	"net/http"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/service"
	"github.com/teamspaceapp/teamspace/pkg/httpx"
)

// writeServiceError maps service and domain errors onto the error envelope.
// Unrecognized errors become an opaque 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())

	case errors.Is(err, domain.ErrAccessDenied):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrWorkspaceNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrCodeNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, domain.ErrPolicyViolation),
		errors.Is(err, domain.ErrMemberState),
		errors.Is(err, domain.ErrInvitationState):
		httpx.WriteError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, domain.ErrCodeExpired):
		httpx.WriteError(w, http.StatusGone, "code_expired", err.Error())

	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}
