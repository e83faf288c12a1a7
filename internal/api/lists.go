package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/models"
)

type createListRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type updateListRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

type listsResponse struct {
	Lists  []*models.GiftList `json:"lists"`
	Shared []*models.GiftList `json:"shared"`
}

func (s *Server) handleGetLists(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	owned, err := s.svc.Lists.GetByOwner(r.Context(), user.ID)
	if err != nil {
		s.logger.WithError(err).Error("failed to get lists")
		s.respondError(w, http.StatusInternalServerError, "Unable to load gift lists. Please try again.")
		return
	}
	shared, err := s.svc.Lists.GetShared(r.Context(), user.ID)
	if err != nil {
		// Shared lists are optional; the owned ones are still useful.
		s.logger.WithError(err).Warn("failed to get shared lists")
		shared = nil
	}

	if owned == nil {
		owned = []*models.GiftList{}
	}
	if shared == nil {
		shared = []*models.GiftList{}
	}
	s.respondJSON(w, http.StatusOK, listsResponse{Lists: owned, Shared: shared})
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if req.Color == "" {
		req.Color = models.DefaultListColor
	}

	created, err := s.svc.Lists.Create(r.Context(), &models.GiftList{
		UserID: currentUser(r).ID,
		Name:   req.Name,
		Color:  req.Color,
	})
	if err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to create list. Please try again.", err))
		return
	}
	created.IsOwner = true
	created.Role = models.RoleOwner

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	var req updateListRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if err := s.validator.Struct(req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	if _, err := s.svc.RequireOwner(r.Context(), currentUser(r).ID, id); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	patch := models.UpdateListInput{Name: req.Name, Color: req.Color}
	if err := s.svc.Lists.Update(r.Context(), id, patch, time.Now()); err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to update list. Please try again.", err))
		return
	}

	updated, err := s.svc.Lists.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to update list. Please try again.", err))
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	if _, err := s.svc.RequireOwner(r.Context(), currentUser(r).ID, id); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	if err := s.svc.Lists.Delete(r.Context(), id); err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to delete list. Please try again.", err))
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}
