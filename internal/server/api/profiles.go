package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/store"
)

// ProfileHandler handles HTTP requests for tuning profiles.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler creates a new ProfileHandler with the given store.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

// ServeHTTP routes /api/profiles and /api/profiles/{id}.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/profiles")
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

	if r.Method == http.MethodDelete {
		h.delete(w, r, path)
		return
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

type profilePayload struct {
	ID              string  `json:"id,omitempty"`
	Name            string  `json:"name"`
	Alpha           float64 `json:"alpha"`
	MotionThreshold float64 `json:"motion_threshold"`
	MergeDistance   float64 `json:"merge_distance"`
	DepthWeight     float64 `json:"depth_weight"`
	MaxAcceleration float64 `json:"max_acceleration"`
	SilenceMs       int     `json:"silence_ms"`
}

type listProfilesResponse struct {
	Profiles []profilePayload `json:"profiles"`
}

func toProfilePayload(p *store.Profile) profilePayload {
	return profilePayload{
		ID:              p.ID,
		Name:            p.Name,
		Alpha:           p.Alpha,
		MotionThreshold: p.MotionThreshold,
		MergeDistance:   p.MergeDistance,
		DepthWeight:     p.DepthWeight,
		MaxAcceleration: p.MaxAcceleration,
		SilenceMs:       p.SilenceMs,
	}
}

func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{
		Profiles: make([]profilePayload, 0, len(profiles)),
	}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toProfilePayload(p))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profilePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	profile := &store.Profile{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Alpha:           req.Alpha,
		MotionThreshold: req.MotionThreshold,
		MergeDistance:   req.MergeDistance,
		DepthWeight:     req.DepthWeight,
		MaxAcceleration: req.MaxAcceleration,
		SilenceMs:       req.SilenceMs,
	}

	if err := h.store.Profiles().Create(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toProfilePayload(profile))
}

func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Profiles().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
