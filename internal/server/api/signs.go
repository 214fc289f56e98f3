// Package api provides HTTP API handlers for the Mudra sign translation pipeline.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

// SignHandler handles HTTP requests for the sign vocabulary.
type SignHandler struct {
	store *store.Store
}

// NewSignHandler creates a new SignHandler with the given store.
func NewSignHandler(s *store.Store) *SignHandler {
	return &SignHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/signs or /api/signs/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/signs")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type landmarkPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type createSignRequest struct {
	Label     string            `json:"label"`
	Tolerance float64           `json:"tolerance"`
	Landmarks []landmarkPayload `json:"landmarks"`
}

type updateSignRequest struct {
	Label     string            `json:"label"`
	Tolerance float64           `json:"tolerance"`
	Landmarks []landmarkPayload `json:"landmarks"`
}

type signResponse struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	Tolerance float64           `json:"tolerance"`
	Landmarks []landmarkPayload `json:"landmarks,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

type listSignsResponse struct {
	Signs []signResponse `json:"signs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toSignResponse converts a store.Sign to a signResponse.
func toSignResponse(s *store.Sign) signResponse {
	return signResponse{
		ID:        s.ID,
		Label:     s.Label,
		Tolerance: s.Tolerance,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/signs and returns the whole vocabulary.
func (h *SignHandler) list(w http.ResponseWriter, r *http.Request) {
	signs, err := h.store.Signs().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list signs")
		return
	}

	response := listSignsResponse{
		Signs: make([]signResponse, 0, len(signs)),
	}

	for _, s := range signs {
		response.Signs = append(response.Signs, toSignResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/signs/{id} and returns one sign with its
// reference pose.
func (h *SignHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sign, err := h.store.Signs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get sign")
		return
	}

	response := toSignResponse(sign)

	landmarks, err := h.store.Signs().GetLandmarks(id)
	if err == nil {
		response.Landmarks = make([]landmarkPayload, len(landmarks))
		for i, l := range landmarks {
			response.Landmarks[i] = landmarkPayload{X: l.X, Y: l.Y, Z: l.Z}
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/signs and registers a new sign.
func (h *SignHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "Label is required")
		return
	}

	if len(req.Landmarks) != 0 && len(req.Landmarks) != detector.NumLandmarks {
		writeError(w, http.StatusBadRequest, "A reference pose must have exactly 21 landmarks")
		return
	}

	tolerance := req.Tolerance
	if tolerance == 0 {
		tolerance = 0.15
	}

	sign := &store.Sign{
		ID:        uuid.New().String(),
		Label:     req.Label,
		Tolerance: tolerance,
	}

	if err := h.store.Signs().Create(sign); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create sign")
		return
	}

	if len(req.Landmarks) > 0 {
		if err := h.store.Signs().SetLandmarks(sign.ID, toStoreLandmarks(req.Landmarks)); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store landmarks")
			return
		}
	}

	writeJSON(w, http.StatusCreated, toSignResponse(sign))
}

// update handles PUT /api/signs/{id} and updates an existing sign.
func (h *SignHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	sign, err := h.store.Signs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get sign")
		return
	}

	var req updateSignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Label != "" {
		sign.Label = req.Label
	}
	if req.Tolerance != 0 {
		sign.Tolerance = req.Tolerance
	}

	if err := h.store.Signs().Update(sign); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update sign")
		return
	}

	if len(req.Landmarks) > 0 {
		if len(req.Landmarks) != detector.NumLandmarks {
			writeError(w, http.StatusBadRequest, "A reference pose must have exactly 21 landmarks")
			return
		}
		if err := h.store.Signs().SetLandmarks(sign.ID, toStoreLandmarks(req.Landmarks)); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store landmarks")
			return
		}
	}

	writeJSON(w, http.StatusOK, toSignResponse(sign))
}

// delete handles DELETE /api/signs/{id} and removes a sign.
func (h *SignHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Signs().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete sign")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toStoreLandmarks(payload []landmarkPayload) []store.Landmark {
	landmarks := make([]store.Landmark, len(payload))
	for i, l := range payload {
		landmarks[i] = store.Landmark{Index: i, X: l.X, Y: l.Y, Z: l.Z}
	}
	return landmarks
}
