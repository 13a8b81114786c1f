package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/workmates/internal/apperror"
	"github.com/sakif/workmates/internal/auth"
	"github.com/sakif/workmates/internal/model"
	"github.com/sakif/workmates/internal/service"
)

// PlaceHandler serves the work-place routes. Creation, deletion, note
// appends, and the "my places" listing require authentication; the /all map
// feed and the nearby lookup are public.
type PlaceHandler struct {
	places *service.PlaceService
	logger *slog.Logger
}

// NewPlaceHandler creates a PlaceHandler.
func NewPlaceHandler(places *service.PlaceService, logger *slog.Logger) *PlaceHandler {
	return &PlaceHandler{places: places, logger: logger}
}

type createPlaceRequest struct {
	Name      string `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Notes     []struct {
		Date    time.Time `json:"date"`
		Content string    `json:"content"`
	} `json:"notes"`
}

// HandleCreate publishes a new work place for the caller.
//
// HTTP: POST /workplace (RequireAuth)
func (h *PlaceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createPlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	notes := make([]model.PlaceNote, 0, len(req.Notes))
	for _, n := range req.Notes {
		notes = append(notes, model.PlaceNote{Date: n.Date, Content: n.Content})
	}

	place, err := h.places.Create(r.Context(), userID, req.Name, req.Latitude, req.Longitude, notes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, place)
}

// HandleDelete removes one of the caller's places.
//
// HTTP: DELETE /workplace/{id} (RequireAuth)
func (h *PlaceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.places.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "work place deleted"})
}

// HandleListOwn lists the caller's places.
//
// HTTP: GET /workplace (RequireAuth)
func (h *PlaceHandler) HandleListOwn(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	places, err := h.places.ListOwn(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

// HandleListAll is the public map feed: every place with its owner's public
// profile. No authentication.
//
// HTTP: GET /workplace/all
func (h *PlaceHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	places, err := h.places.ListAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

type addNoteRequest struct {
	Date    time.Time `json:"date"`
	Content string    `json:"content"`
}

// HandleAddNote appends an activity note to a place the caller owns.
//
// HTTP: POST /workplace/{id}/notes (RequireAuth)
func (h *PlaceHandler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req addNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	place, err := h.places.AddNote(r.Context(), r.PathValue("id"), userID, req.Date, req.Content)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// HandleNearby returns places inside a bounding box around the given point.
//
// HTTP: GET /workplace/nearby?lat=&lng=&radius=
func (h *PlaceHandler) HandleNearby(w http.ResponseWriter, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, h.logger, apperror.ValidationFailed("lat", "lat and lng query parameters are required"))
		return
	}

	// radius is optional; 0 lets the service pick its default.
	radius, _ := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)

	places, err := h.places.FindNearby(r.Context(), lat, lng, radius)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}
