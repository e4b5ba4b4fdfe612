package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/felixheck/bissle/internal/metrics"
	"github.com/felixheck/bissle/internal/store"
	"github.com/felixheck/bissle/paging"
)

// DefaultCollection receives items created without a collection.
const DefaultCollection = "default"

type itemsHandler struct {
	deps Deps
}

// List paginates every item in memory.
// GET /items
func (h *itemsHandler) List(w http.ResponseWriter, r *http.Request) {
	o := h.deps.options(RouteItems)
	items, err := h.deps.Items.ListAll(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	h.deps.Paginator.Respond(w, r, map[string]any{o.Key: items}, o)
}

// ListCollection fetches only the requested page of one collection and hands
// the paginator the total count.
// GET /collections/{collection}/items
func (h *itemsHandler) ListCollection(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if err := store.ValidateCollection(collection); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_COLLECTION")
		return
	}

	o := h.deps.options(RouteCollectionItems)
	pq, err := h.deps.Paginator.Parse(r, o)
	if err != nil {
		paging.WriteError(w, err)
		return
	}

	total, err := h.deps.Items.CountByCollection(r.Context(), collection)
	if err != nil {
		internalError(w, r, err)
		return
	}
	items, err := h.deps.Items.ListByCollection(r.Context(), collection, pq.Offset(), pq.PerPage)
	if err != nil {
		internalError(w, r, err)
		return
	}

	payload := map[string]any{
		o.Key:        items,
		"collection": collection,
	}
	h.deps.Paginator.Respond(w, r, payload, o.WithTotal(total))
}

type createItemRequest struct {
	Collection string `json:"collection"`
	Name       string `json:"name"`
}

// Create stores a new item.
// POST /items
func (h *itemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "BAD_REQUEST")
		return
	}
	if req.Collection == "" {
		req.Collection = DefaultCollection
	}
	if err := store.ValidateCollection(req.Collection); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_COLLECTION")
		return
	}
	if err := store.ValidateName(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_NAME")
		return
	}

	item, err := h.deps.Items.Create(r.Context(), req.Collection, req.Name)
	if errors.Is(err, store.ErrDuplicateItem) {
		writeError(w, http.StatusConflict, err.Error(), "CONFLICT")
		return
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	metrics.ItemsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, item)
}

// Schema describes the paging parameters of a route, selected with ?route=,
// defaulting to the items route.
// GET /paging/schema
func (h *itemsHandler) Schema(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("route")
	if id == "" {
		id = RouteItems
	}
	if _, ok := h.deps.Routes.Pattern(id); !ok {
		writeError(w, http.StatusNotFound, "unknown route", "NOT_FOUND")
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Paginator.Config().Schema(h.deps.options(id)))
}
