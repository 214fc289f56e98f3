package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/mudra/internal/store"
)

func newTestHandler(t *testing.T) (*SignHandler, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewSignHandler(s), s
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func fullPose() []landmarkPayload {
	pose := make([]landmarkPayload, 21)
	for i := range pose {
		pose[i] = landmarkPayload{X: float64(i) * 0.01, Y: 0.5, Z: 0}
	}
	return pose
}

func TestSignHandler_CreateAndGet(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/signs", createSignRequest{
		Label:     "HELLO",
		Landmarks: fullPose(),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var created signResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created sign has no id")
	}
	if created.Tolerance != 0.15 {
		t.Errorf("tolerance = %v, want the 0.15 default", created.Tolerance)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/signs/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var got signResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if got.Label != "HELLO" {
		t.Errorf("label = %q, want HELLO", got.Label)
	}
	if len(got.Landmarks) != 21 {
		t.Errorf("landmarks = %d, want the stored 21-point pose", len(got.Landmarks))
	}
}

func TestSignHandler_CreateValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		req  createSignRequest
	}{
		{name: "missing label", req: createSignRequest{Landmarks: fullPose()}},
		{name: "partial pose", req: createSignRequest{Label: "X", Landmarks: fullPose()[:5]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/signs", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSignHandler_List(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, label := range []string{"A", "B"} {
		rec := doJSON(t, h, http.MethodPost, "/api/signs", createSignRequest{Label: label})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %q status = %d", label, rec.Code)
		}
	}

	rec := doJSON(t, h, http.MethodGet, "/api/signs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var list listSignsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Signs) != 2 {
		t.Errorf("list returned %d signs, want 2", len(list.Signs))
	}
}

func TestSignHandler_Update(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/signs", createSignRequest{Label: "OLD"})
	var created signResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, h, http.MethodPut, "/api/signs/"+created.ID, updateSignRequest{
		Label:     "NEW",
		Tolerance: 0.3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var updated signResponse
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Label != "NEW" || updated.Tolerance != 0.3 {
		t.Errorf("updated = %+v, want label NEW tolerance 0.3", updated)
	}
}

func TestSignHandler_Delete(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/signs", createSignRequest{Label: "GONE"})
	var created signResponse
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, h, http.MethodDelete, "/api/signs/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/signs/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestSignHandler_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/signs/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Error == "" {
		t.Error("error response has no message")
	}
}

func TestSignHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPatch, "/api/signs", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
