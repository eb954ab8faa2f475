package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/service"
	"github.com/teamspaceapp/teamspace/pkg/httpx"
)

type createInvitationsRequest struct {
	Emails        []string `json:"emails"`
	ExpiresInDays int      `json:"expires_in_days"`
}

type resendInvitationRequest struct {
	Email         string `json:"email"`
	ExpiresInDays int    `json:"expires_in_days"`
}

type invitationResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	ExpiredAt  *time.Time `json:"expired_at,omitempty"`
}

type invitationBatchResponse struct {
	Code        string               `json:"code,omitempty"`
	ExpiresAt   time.Time            `json:"expires_at,omitzero"`
	Invitations []invitationResponse `json:"invitations"`
	Skipped     []string             `json:"skipped,omitempty"`
}

type acceptResponse struct {
	Outcome     string `json:"outcome"`
	WorkspaceID string `json:"workspace_id"`
	MemberID    string `json:"member_id,omitempty"`
}

func toInvitationResponse(inv domain.Invitation) invitationResponse {
	return invitationResponse{
		ID:         inv.ID,
		Email:      inv.SentEmail,
		Status:     string(inv.Status),
		CreatedAt:  inv.CreatedAt,
		SentAt:     inv.SentAt,
		AcceptedAt: inv.AcceptedAt,
		ExpiredAt:  inv.ExpiredAt,
	}
}

func toBatchResponse(res service.CreateInvitationsResult) invitationBatchResponse {
	out := invitationBatchResponse{
		Code:      res.InviteCode.Code,
		ExpiresAt: res.InviteCode.ExpiresAt,
		Skipped:   res.Skipped,
	}
	for _, inv := range res.Invitations {
		out.Invitations = append(out.Invitations, toInvitationResponse(inv))
	}
	return out
}

type InvitationHandler struct {
	InvitationService *service.InvitationService
}

func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInvitationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	res, err := h.InvitationService.CreateInvitations(r.Context(),
		httpx.UserIDFromContext(r.Context()), r.PathValue("id"), req.Emails, req.ExpiresInDays)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toBatchResponse(res))
}

func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.InvitationService.ListInvitations(r.Context(),
		httpx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]invitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		out = append(out, toInvitationResponse(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"invitations": out})
}

func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req resendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	res, err := h.InvitationService.ResendInvitation(r.Context(),
		httpx.UserIDFromContext(r.Context()), r.PathValue("id"), req.Email, req.ExpiresInDays)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toBatchResponse(res))
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	res, err := h.InvitationService.AcceptInvitation(r.Context(),
		httpx.UserIDFromContext(r.Context()), r.PathValue("code"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, acceptResponse{
		Outcome:     string(res.Outcome),
		WorkspaceID: res.WorkspaceID,
		MemberID:    res.MemberID,
	})
}
