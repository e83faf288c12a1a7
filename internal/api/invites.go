package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/models"
)

type createInviteRequest struct {
	Email string            `json:"email"`
	Role  models.MemberRole `json:"role"`
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	var req createInviteRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	user := currentUser(r)
	if s.opts.InviteLimit != nil && !s.opts.InviteLimit.Allow(user.ID.String()) {
		s.respondError(w, http.StatusTooManyRequests, "Too many invitations. Please wait a minute and try again.")
		return
	}

	created, err := s.svc.Invitations.Create(r.Context(), user.ID, listID, req.Email, req.Role)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

// handleInviteDetails previews a token. Invalid tokens still answer 200 with
// valid=false so the client can show the reason.
func (s *Server) handleInviteDetails(w http.ResponseWriter, r *http.Request) {
	details := s.svc.Invitations.Details(r.Context(), chi.URLParam(r, "token"))
	s.respondJSON(w, http.StatusOK, details)
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID := uuid.Nil
	if user := currentUser(r); user != nil {
		userID = user.ID
	}

	accepted, err := s.svc.Invitations.Accept(r.Context(), userID, chi.URLParam(r, "token"))
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, accepted)
}
