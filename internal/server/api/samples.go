package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/store"
)

// Sample type tags carried in recorded sample payloads.
const (
	SampleTypePose   = "pose"
	SampleTypeMotion = "motion"
)

// SamplesHandler handles HTTP requests for recorded sign samples and
// turns them into matchable templates.
type SamplesHandler struct {
	store *store.Store
}

// NewSamplesHandler creates a new SamplesHandler with the given store.
func NewSamplesHandler(s *store.Store) *SamplesHandler {
	return &SamplesHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/signs/{id}/samples and /api/signs/{id}/train
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/signs/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	signID := parts[0]

	switch parts[1] {
	case "samples":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r, signID)
		case http.MethodPost:
			h.create(w, r, signID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "train":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.train(w, r, signID)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	SignID      string          `json:"sign_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

type trainResponse struct {
	Status string `json:"status"`
	Type   string `json:"type"`
	Points int    `json:"points"`
}

// list handles GET /api/signs/{id}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, signID string) {
	samples, err := h.store.Samples().GetBySignID(signID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}

	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			SignID:      s.SignID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/signs/{id}/samples
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, signID string) {
	// Verify the sign exists
	_, err := h.store.Signs().GetByID(signID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify sign")
		return
	}

	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	if err := h.store.Samples().Create(signID, req.Samples); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

// train handles POST /api/signs/{id}/train: it averages the sign's
// recorded samples into its matchable template. Pose samples train the
// reference pose the classifier matches per frame; motion samples train
// the trajectory the interpreter warps completed segments against.
func (h *SamplesHandler) train(w http.ResponseWriter, r *http.Request, signID string) {
	if _, err := h.store.Signs().GetByID(signID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify sign")
		return
	}

	samples, err := h.store.Samples().GetBySignID(signID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load samples")
		return
	}
	if len(samples) == 0 {
		writeError(w, http.StatusBadRequest, "No recorded samples to train from")
		return
	}

	raw := make([]json.RawMessage, len(samples))
	for i, s := range samples {
		raw[i] = s.Data
	}

	sampleType, err := sampleTypeOf(raw[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sample data")
		return
	}

	switch sampleType {
	case SampleTypePose:
		points, err := classify.TrainPose(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		landmarks := make([]store.Landmark, len(points))
		for i, p := range points {
			landmarks[i] = store.Landmark{Index: i, X: p.X, Y: p.Y, Z: p.Z}
		}
		if err := h.store.Signs().SetLandmarks(signID, landmarks); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save template")
			return
		}

		writeJSON(w, http.StatusOK, trainResponse{Status: "ok", Type: SampleTypePose, Points: len(points)})

	case SampleTypeMotion:
		path, err := interpret.TrainPath(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		stored := make([]store.PathPoint, len(path))
		for i, p := range path {
			stored[i] = store.PathPoint{Sequence: i, X: p.X, Y: p.Y, TimestampMs: p.Timestamp}
		}
		if err := h.store.Signs().SetPath(signID, stored); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save template")
			return
		}

		writeJSON(w, http.StatusOK, trainResponse{Status: "ok", Type: SampleTypeMotion, Points: len(path)})

	default:
		writeError(w, http.StatusBadRequest, "Unknown sample type "+sampleType)
	}
}

// sampleTypeOf reads the type tag off a recorded sample.
func sampleTypeOf(raw json.RawMessage) (string, error) {
	var tagged struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return "", err
	}
	return tagged.Type, nil
}
