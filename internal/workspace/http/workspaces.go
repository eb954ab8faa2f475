package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/teamspaceapp/teamspace/internal/workspace/domain"
	"github.com/teamspaceapp/teamspace/internal/workspace/service"
	"github.com/teamspaceapp/teamspace/pkg/httpx"
)

type workspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type workspaceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Personal    bool      `json:"personal"`
	CreatedAt   time.Time `json:"created_at"`
}

func toWorkspaceResponse(ws domain.Workspace) workspaceResponse {
	return workspaceResponse{
		ID:          ws.ID,
		Name:        ws.Name,
		Description: ws.Description,
		Personal:    ws.Personal,
		CreatedAt:   ws.CreatedAt,
	}
}

type memberResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
}

type WorkspaceHandler struct {
	WorkspaceService *service.WorkspaceService
}

func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	ws, err := h.WorkspaceService.CreateWorkspace(r.Context(), httpx.UserIDFromContext(r.Context()), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, err := h.WorkspaceService.GetWorkspace(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	ws, err := h.WorkspaceService.RenameWorkspace(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toWorkspaceResponse(ws))
}

func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.WorkspaceService.DeleteWorkspace(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.WorkspaceService.ListMembers(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{
			ID:       m.ID,
			UserID:   m.UserID,
			Role:     string(m.Role),
			Status:   string(m.Status),
			JoinedAt: m.JoinedAt.Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (h *WorkspaceHandler) Leave(w http.ResponseWriter, r *http.Request) {
	err := h.WorkspaceService.LeaveWorkspace(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkspaceHandler) Kick(w http.ResponseWriter, r *http.Request) {
	err := h.WorkspaceService.KickMember(r.Context(), httpx.UserIDFromContext(r.Context()), r.PathValue("id"), r.PathValue("memberID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
