package web

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeyNPP/Furniture-Site/internal/catalog/memstore"
	"github.com/JoeyNPP/Furniture-Site/internal/config"
	"github.com/JoeyNPP/Furniture-Site/internal/core"
)

const dealsCSV = "Item #,Product Name,Our Price,Category,Room Type\n" +
	"A1,Oak Chair,19.99,Home & Garden,\"Office, Living Room\"\n" +
	"A2,Pine Table,120,home and garden,Dining\n" +
	",,5,,\n"

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080, RequestTimeout: 10 * time.Second},
		Upload:  config.UploadConfig{MaxFileSize: 1 << 20},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	svc := core.NewService(store, core.Options{
		MaxFileSize: cfg.Upload.MaxFileSize,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return NewServer(svc, cfg), store
}

func multipartBody(t *testing.T, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func postFile(t *testing.T, s *Server, path, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "deals.csv", content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	return do(t, s, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestFields(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/fields", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		MatchKey string      `json:"match_key"`
		Fields   []FieldInfo `json:"fields"`
	}](t, rec)
	assert.Equal(t, "sku,title", body.MatchKey)
	require.NotEmpty(t, body.Fields)
	assert.Equal(t, "sku", body.Fields[0].Name)
	assert.Equal(t, "text", body.Fields[0].Type)
	assert.Contains(t, body.Fields[0].Aliases, "item #")
}

func TestIngestThenBrowse(t *testing.T) {
	s, store := newTestServer(t, testConfig())

	rec := postFile(t, s, "/api/ingest", dealsCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[struct {
		Inserted int `json:"inserted"`
		Skipped  int `json:"skipped"`
	}](t, rec)
	assert.Equal(t, 2, out.Inserted)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, 2, store.Len())

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]map[string]string](t, rec)
	require.Len(t, cats, 1)
	assert.Equal(t, "Home & Garden", cats[0]["label"])

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/categories/home%20and%20garden/products", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	listing := decode[struct {
		Products []map[string]any `json:"products"`
	}](t, rec)
	assert.Len(t, listing.Products, 2)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/facets?field=room_type", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	facets := decode[map[string][]string](t, rec)
	assert.Equal(t, []string{"Dining", "Living Room", "Office"}, facets["room_type"])

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/filters", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	filters := decode[struct {
		PriceRange *struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"price_range"`
	}](t, rec)
	require.NotNil(t, filters.PriceRange)
	assert.InDelta(t, 19.99, filters.PriceRange.Min, 1e-9)
	assert.InDelta(t, 120, filters.PriceRange.Max, 1e-9)
}

func TestUnknownCategoryAndField(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/categories/Kitchen/products", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CAT002", decode[ErrorResponse](t, rec).Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/facets?field=shoe_size", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CAT001", decode[ErrorResponse](t, rec).Code)
}

func TestAsyncUpload(t *testing.T) {
	s, store := newTestServer(t, testConfig())

	rec := postFile(t, s, "/api/upload", dealsCSV)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["upload_id"]
	require.NotEmpty(t, id)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/upload/"+id+"/result", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[UploadResultResponse](t, rec)
	assert.Equal(t, string(core.PhaseComplete), result.Phase)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, store.Len())

	// The progress stream of a finished upload replays the final state.
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/upload/"+id+"/progress", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: progress")
	assert.Contains(t, rec.Body.String(), "event: complete")

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/upload/"+id+"/skipped", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	rows, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"line", "reason"}, {"4", "no matchable key"}}, rows)

	req := httptest.NewRequest(http.MethodGet, "/api/upload/"+id+"/result", nil)
	req.Header.Set("HX-Request", "true")
	rec = do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="upload-summary"`)
}

func TestLastEventID(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		header string
		want   int
	}{
		{"none", "", "", -1},
		{"header from browser reconnect", "", "42", 42},
		{"query parameter", "lastEventId=7", "", 7},
		{"query wins over header", "lastEventId=7", "42", 7},
		{"garbage", "", "abc", -1},
		{"negative", "lastEventId=-3", "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/upload/x/progress?"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Last-Event-ID", tt.header)
			}
			assert.Equal(t, tt.want, lastEventID(req))
		})
	}
}

func TestProgressResumeStillSendsFinalState(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec := postFile(t, s, "/api/upload", dealsCSV)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["upload_id"]

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/upload/"+id+"/result", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/upload/"+id+"/progress", nil)
	req.Header.Set("Last-Event-ID", "100")
	rec = do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "id: 100\nevent: progress")
	assert.Contains(t, rec.Body.String(), "event: complete")
}

func TestUploadNotFound(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	for _, path := range []string{"/api/upload/nope/result", "/api/upload/nope/progress"} {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, "UPL003", decode[ErrorResponse](t, rec).Code, path)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/upload/nope/cancel", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewDoesNotWrite(t *testing.T) {
	s, store := newTestServer(t, testConfig())

	rec := postFile(t, s, "/api/preview", dealsCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[core.PreviewResult](t, rec)
	assert.Equal(t, 2, preview.Outcome.Inserted)
	assert.Len(t, preview.NewSamples, 2)
	assert.Zero(t, store.Len())
}

func TestUploadErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	s, _ := newTestServer(t, cfg)

	rec := postFile(t, s, "/api/ingest", "sku\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE005", decode[ErrorResponse](t, rec).Code)

	rec = postFile(t, s, "/api/ingest", dealsCSV)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, rec).Code)

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader("not a form"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("HX-Request", "true")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Code: FILE004")
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	s, _ := newTestServer(t, cfg)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/fields", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/fields", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitApplied(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}
	s, _ := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
