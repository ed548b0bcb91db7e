package persist

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKVHandler_Requests(t *testing.T) {
	st := NewMemoryStorage()
	_ = st.Put("team/notes", []byte(`[{"id":"1"}]`))
	h := NewKVHandler(st, testLogger())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"get stored value", http.MethodGet, "/team/notes", "", http.StatusOK, `[{"id":"1"}]`},
		{"get missing key", http.MethodGet, "/team/lanes", "", http.StatusNotFound, ""},
		{"empty key", http.MethodGet, "/", "", http.StatusBadRequest, ""},
		{"post invalid json", http.MethodPost, "/team/notes", "{broken", http.StatusBadRequest, ""},
		{"post value", http.MethodPost, "/team/lanes", `[]`, http.StatusNoContent, ""},
		{"put value", http.MethodPut, "/team/other", `{"a":1}`, http.StatusNoContent, ""},
		{"unsupported method", http.MethodPatch, "/team/notes", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}

	if got, _ := st.Get("team/notes"); string(got) != `[{"id":"1"}]` {
		t.Errorf("invalid post overwrote the value: %s", got)
	}
}

func TestKVHandler_Delete(t *testing.T) {
	st := NewMemoryStorage()
	_ = st.Put("notes", []byte(`[]`))
	h := NewKVHandler(st, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/notes", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if _, err := st.Get("notes"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestKVHandler_OversizedValue(t *testing.T) {
	h := NewKVHandler(NewMemoryStorage(), testLogger())
	body := `"` + strings.Repeat("x", maxValueSize) + `"`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(body)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestKVHandler_StorageFailure(t *testing.T) {
	h := NewKVHandler(failingStorage{}, testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if strings.Contains(string(body), errDisk.Error()) {
		t.Errorf("body leaks the storage error: %q", body)
	}
}

func TestKVHandler_ServesRemote(t *testing.T) {
	st := NewMemoryStorage()
	mux := http.NewServeMux()
	mux.Handle("/api/kv/", http.StripPrefix("/api/kv", NewKVHandler(st, testLogger())))
	server := httptest.NewServer(mux)
	defer server.Close()

	r := NewRemote(server.URL+"/api/kv/team", WithLogger(testLogger()))
	defer r.Close()
	ctx := context.Background()

	var got []note
	if r.Load(ctx, "notes", &got) {
		t.Fatal("Load() before any save = true, want false")
	}

	want := []note{{ID: "1", Task: "shared"}}
	if err := r.Save(ctx, "notes", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !r.Load(ctx, "notes", &got) {
		t.Fatal("Load() = false, want true")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	raw, err := st.Get("team/notes")
	if err != nil {
		t.Fatalf("medium has no team/notes: %v", err)
	}
	if string(raw) != `[{"id":"1","task":"shared"}]` {
		t.Errorf("medium value = %s", raw)
	}
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		driver     string
		path       string
		wantRemote bool
		wantErr    bool
	}{
		{DriverMemory, "", false, false},
		{DriverBolt, filepath.Join(dir, "backend.db"), false, false},
		{DriverSQLite, filepath.Join(dir, "backend.sqlite"), false, false},
		{DriverRemote, "http://127.0.0.1:8080/api/kv/team", true, false},
		{DriverRemote, "", false, true},
		{DriverRemote, "ftp://host/kv", false, true},
		{"redis", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.driver+" "+tt.path, func(t *testing.T) {
			b, err := OpenBackend(tt.driver, tt.path, testLogger())
			if tt.wantErr {
				if err == nil {
					t.Error("OpenBackend() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenBackend() error = %v", err)
			}
			defer b.Close()

			_, isRemote := b.(*Remote)
			_, isKV := b.(*KV)
			if isRemote != tt.wantRemote || isKV == tt.wantRemote {
				t.Errorf("OpenBackend() = %T, want remote=%v", b, tt.wantRemote)
			}
		})
	}
}
