package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/models"
)

type createItemRequest struct {
	Name      string            `json:"name" validate:"required,max=200"`
	Status    models.ItemStatus `json:"status" validate:"omitempty,oneof=required optional"`
	Priority  int               `json:"priority"`
	PriceLow  *float64          `json:"price_low" validate:"omitempty,gte=0"`
	PriceHigh *float64          `json:"price_high" validate:"omitempty,gte=0"`
	Notes     string            `json:"notes" validate:"max=2000"`
	ValueTag  *string           `json:"value_tag" validate:"omitempty,max=20"`
}

type completeItemsRequest struct {
	IDs         []uuid.UUID `json:"ids" validate:"required,min=1"`
	IsCompleted bool        `json:"is_completed"`
}

type addLinkRequest struct {
	StoreName   string   `json:"store_name" validate:"required,max=100"`
	URL         string   `json:"url" validate:"required,http_url"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	IsBestPrice bool     `json:"is_best_price"`
	IsHighend   bool     `json:"is_highend"`
}

func checkPriceRange(low, high *float64) error {
	if low != nil && high != nil && *low > *high {
		return apperrors.Validation("Low price cannot exceed high price")
	}
	return nil
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	if _, _, err := s.svc.RequireRead(r.Context(), currentUser(r).ID, listID); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	items, err := s.svc.Items.GetByList(r.Context(), listID)
	if err != nil {
		s.respondAppError(w, r, apperrors.Remote("Unable to load items. Please try again.", err))
		return
	}
	if items == nil {
		items = []*models.GiftItem{}
	}
	s.respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	var req createItemRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if err := checkPriceRange(req.PriceLow, req.PriceHigh); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if _, _, err := s.svc.RequireEdit(r.Context(), currentUser(r).ID, listID); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	if req.Status == "" {
		req.Status = models.ItemStatusRequired
	}
	maxOrder, err := s.svc.Items.MaxSortOrder(r.Context(), listID)
	if err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to create item. Please try again.", err))
		return
	}

	item := &models.GiftItem{
		ListID:    listID,
		Name:      req.Name,
		Status:    req.Status,
		Priority:  req.Priority,
		PriceLow:  req.PriceLow,
		PriceHigh: req.PriceHigh,
		ValueTag:  req.ValueTag,
		SortOrder: maxOrder + 1,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		item.Notes = &notes
	}

	created, err := s.svc.Items.Create(r.Context(), item)
	if err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to create item. Please try again.", err))
		return
	}
	created.RetailerLinks = []models.RetailerLink{}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var patch models.UpdateItemInput
	if ok, msg := s.decodeJSON(r, &patch); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	item, err := s.editableItem(r, id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			s.respondAppError(w, r, apperrors.Validation("Item name is required"))
			return
		}
		patch.Name = &name
	}
	if patch.Status != nil && !s.validator.Var(string(*patch.Status), "oneof=required optional") {
		s.respondAppError(w, r, apperrors.Validation("Status must be required or optional"))
		return
	}

	now := time.Now()
	prospective := item.Clone()
	patch.Apply(&prospective, now)
	if (prospective.PriceLow != nil && *prospective.PriceLow < 0) || (prospective.PriceHigh != nil && *prospective.PriceHigh < 0) {
		s.respondAppError(w, r, apperrors.Validation("Prices cannot be negative"))
		return
	}
	if err := checkPriceRange(prospective.PriceLow, prospective.PriceHigh); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	if err := s.svc.Items.Update(r.Context(), id, patch, now); err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to update item. Please try again.", err))
		return
	}
	s.respondJSON(w, http.StatusOK, prospective)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if _, err := s.editableItem(r, id); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	if err := s.svc.Items.Delete(r.Context(), id); err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to delete item. Please try again.", err))
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleCompleteItems sets is_completed on every listed item in one update.
// The caller must be able to edit every list involved.
func (s *Server) handleCompleteItems(w http.ResponseWriter, r *http.Request) {
	var req completeItemsRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	checked := make(map[uuid.UUID]bool)
	for _, id := range req.IDs {
		listID, err := s.svc.ItemList(r.Context(), id)
		if err != nil {
			s.respondAppError(w, r, err)
			return
		}
		if checked[listID] {
			continue
		}
		if _, _, err := s.svc.RequireEdit(r.Context(), currentUser(r).ID, listID); err != nil {
			s.respondAppError(w, r, err)
			return
		}
		checked[listID] = true
	}

	if err := s.svc.Items.SetCompleted(r.Context(), req.IDs, req.IsCompleted); err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to update items. Please try again.", err))
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"updated": len(req.IDs)})
}

func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	itemID, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req addLinkRequest
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	req.StoreName = strings.TrimSpace(req.StoreName)
	req.URL = strings.TrimSpace(req.URL)
	if err := s.validator.Struct(req); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if _, err := s.editableItem(r, itemID); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	created, err := s.svc.Links.Create(r.Context(), &models.RetailerLink{
		ItemID:      itemID,
		StoreName:   req.StoreName,
		URL:         req.URL,
		Price:       req.Price,
		IsBestPrice: req.IsBestPrice,
		IsHighend:   req.IsHighend,
	})
	if err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to add link. Please try again.", err))
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid link id")
		return
	}
	_, listID, err := s.svc.LinkList(r.Context(), id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if _, _, err := s.svc.RequireEdit(r.Context(), currentUser(r).ID, listID); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	if err := s.svc.Links.Delete(r.Context(), id); err != nil {
		s.respondAppError(w, r, apperrors.Remote("Failed to delete link. Please try again.", err))
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// editableItem loads an item the caller may mutate.
func (s *Server) editableItem(r *http.Request, id uuid.UUID) (*models.GiftItem, error) {
	item, err := s.svc.Items.GetByID(r.Context(), id)
	if err != nil {
		return nil, apperrors.Remote("Failed to load item. Please try again.", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("Item not found")
	}
	if _, _, err := s.svc.RequireEdit(r.Context(), currentUser(r).ID, item.ListID); err != nil {
		return nil, err
	}
	return item, nil
}
