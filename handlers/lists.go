package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"cinebot/models"
	"cinebot/services/lists"
)

// ListsHandler exposes read-only inspection of persisted user lists.
type ListsHandler struct {
	lists *lists.Service
}

func NewListsHandler(lists *lists.Service) *ListsHandler {
	return &ListsHandler{lists: lists}
}

// GetList handles GET /api/lists/{kind}/{userId}.
func (h *ListsHandler) GetList(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	kind, ok := models.ParseListKind(vars["kind"])
	if !ok {
		http.Error(w, "unknown list kind", http.StatusNotFound)
		return
	}
	userID := vars["userId"]
	if userID == "" {
		http.Error(w, "user id required", http.StatusBadRequest)
		return
	}

	titles := h.lists.Titles(userID, kind)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"userId": userID,
		"kind":   kind,
		"count":  len(titles),
		"titles": titles,
	})
}
