package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartmob-dashboard/internal/acquisition"
	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/table"
	"smartmob-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

type mockAcquisitionService struct {
	latestSingleFn func(ctx context.Context, line, station string) (*acquisition.Acquisition, error)
	healthFn       func(ctx context.Context) (map[string]any, error)
	hubUp          bool
}

func (m *mockAcquisitionService) Latest(ctx context.Context) ([]acquisition.Acquisition, error) {
	return []acquisition.Acquisition{}, nil
}

func (m *mockAcquisitionService) LatestSingle(ctx context.Context, line, station string) (*acquisition.Acquisition, error) {
	return m.latestSingleFn(ctx, line, station)
}

func (m *mockAcquisitionService) ByID(ctx context.Context, id int) (*acquisition.Acquisition, error) {
	return nil, nil
}

func (m *mockAcquisitionService) List(ctx context.Context, page, pageSize int) (*acquisition.Page, error) {
	return nil, nil
}

func (m *mockAcquisitionService) Range(ctx context.Context, r util.DateRange) ([]acquisition.Acquisition, error) {
	return nil, nil
}

func (m *mockAcquisitionService) Filter(ctx context.Context, line, station string) ([]acquisition.Acquisition, error) {
	return nil, nil
}

func (m *mockAcquisitionService) Export(ctx context.Context, format string) (*http.Response, error) {
	return nil, nil
}

func (m *mockAcquisitionService) Health(ctx context.Context) (map[string]any, error) {
	return m.healthFn(ctx)
}

func (m *mockAcquisitionService) HubStatus(ctx context.Context) bool { return m.hubUp }

func setupRealtimeRouter(fx *syncFixture, svc acquisition.AcquisitionServiceAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, fx.sync, svc, func(c *gin.Context) { c.Next() })
	RegisterHealthRoutes(r, true, fx.sync, svc)
	return r
}

func TestRealtimeController_ConnectThenQuery(t *testing.T) {
	fx := newSyncFixture()
	fx.rows = []acquisition.Acquisition{
		{ID: 1, CodiceArticolo: "ZETA"},
		{ID: 2, CodiceArticolo: "alfa"},
		{ID: 3, CodiceArticolo: "Beta"},
	}
	r := setupRealtimeRouter(fx, &mockAcquisitionService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/realtime/connect", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/realtime?sort=codicE_ARTICOLO&pageSize=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		State       State                               `json:"state"`
		RecordCount int                                 `json:"record_count"`
		Data        table.Page[acquisition.Acquisition] `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != StateConnected || resp.RecordCount != 3 {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Data.Items) != 2 || resp.Data.Items[0].ID != 2 || resp.Data.Items[1].ID != 3 {
		t.Fatalf("items = %+v", resp.Data.Items)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q", got)
	}
}

func TestRealtimeController_ConnectFailure(t *testing.T) {
	fx := newSyncFixture()
	fx.startErr = backend.ErrDisabled
	r := setupRealtimeRouter(fx, &mockAcquisitionService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/realtime/connect", nil))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestRealtimeController_SendRequiresConnection(t *testing.T) {
	fx := newSyncFixture()
	r := setupRealtimeRouter(fx, &mockAcquisitionService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/realtime/send", strings.NewReader(`{"method":"Ping","args":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var res backend.Result[any]
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Success || res.Message != ErrNotConnected.Error() {
		t.Fatalf("res = %+v", res)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/realtime/send", strings.NewReader(`{"args":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRealtimeController_ExportLiveList(t *testing.T) {
	fx := newSyncFixture()
	fx.rows = []acquisition.Acquisition{{ID: 1}, {ID: 2}}
	fx.sync.Connect(context.Background())
	r := setupRealtimeRouter(fx, &mockAcquisitionService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/realtime/export?format=csv", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "acquisizioni_") {
		t.Fatalf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if lines := strings.Count(strings.TrimSpace(w.Body.String()), "\n"); lines != 2 {
		t.Fatalf("csv lines = %d, want header + 2", lines+1)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/realtime/export?format=pdf", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRealtimeController_LatestSingle(t *testing.T) {
	svc := &mockAcquisitionService{latestSingleFn: func(ctx context.Context, line, station string) (*acquisition.Acquisition, error) {
		if line == "" || station == "" {
			return nil, acquisition.ErrKeysRequired
		}
		if line == "L9" {
			return nil, nil
		}
		return &acquisition.Acquisition{ID: 11, CodLinea: line, CodPostazione: station}, nil
	}}
	r := setupRealtimeRouter(newSyncFixture(), svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/realtime/latest-single?line=L1&station=S1", nil))
	var res backend.Result[*acquisition.Acquisition]
	json.Unmarshal(w.Body.Bytes(), &res)
	if w.Code != http.StatusOK || res.Data == nil || res.Data.ID != 11 {
		t.Fatalf("status = %d res = %+v", w.Code, res)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/realtime/latest-single?line=L9&station=S1", nil))
	res = backend.Result[*acquisition.Acquisition]{}
	json.Unmarshal(w.Body.Bytes(), &res)
	if w.Code != http.StatusOK || res.Data != nil || res.Message != acquisition.NoneForPairMessage {
		t.Fatalf("status = %d res = %+v", w.Code, res)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/realtime/latest-single?line=L1", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHealthController(t *testing.T) {
	svc := &mockAcquisitionService{
		healthFn: func(ctx context.Context) (map[string]any, error) { return map[string]any{"status": "Healthy"}, nil },
		hubUp:    true,
	}
	r := setupRealtimeRouter(newSyncFixture(), svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var body map[string]any
	json.Unmarshal(w.Body.Bytes(), &body)
	if w.Code != http.StatusOK || body["status"] != "ok" || body["hub"] != true {
		t.Fatalf("status = %d body = %v", w.Code, body)
	}

	svc.healthFn = func(ctx context.Context) (map[string]any, error) {
		return nil, &backend.Error{Message: "connection refused"}
	}
	svc.hubUp = false
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	body = nil
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "degraded" || body["error"] != "connection refused" {
		t.Fatalf("body = %v", body)
	}
}
