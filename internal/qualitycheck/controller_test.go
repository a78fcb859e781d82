package qualitycheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/crud"
	"smartmob-dashboard/internal/datastore"
	"smartmob-dashboard/internal/table"

	"github.com/gin-gonic/gin"
)

type mockQualityCheckService struct {
	listFn   func(ctx context.Context) ([]Record, error)
	createFn func(ctx context.Context, in Input) (*Record, error)
	updateFn func(ctx context.Context, id int, in Input) (*Record, error)
	deleteFn func(ctx context.Context, id int) error
}

func (m *mockQualityCheckService) List(ctx context.Context) ([]Record, error) {
	if m.listFn == nil {
		return []Record{}, nil
	}
	return m.listFn(ctx)
}

func (m *mockQualityCheckService) Create(ctx context.Context, in Input) (*Record, error) {
	return m.createFn(ctx, in)
}

func (m *mockQualityCheckService) Update(ctx context.Context, id int, in Input) (*Record, error) {
	return m.updateFn(ctx, id, in)
}

func (m *mockQualityCheckService) Delete(ctx context.Context, id int) error {
	return m.deleteFn(ctx, id)
}

func setupQualityCheckRouter(svc QualityCheckServiceAPI) (*gin.Engine, *crud.Resource[Record]) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	res := NewResource(svc, datastore.Options{}, table.NewConfirmations(time.Minute))
	RegisterRoutes(r, svc, res, func(c *gin.Context) { c.Next() })
	return r, res
}

func jsonRequest(method, url, body string) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestQualityCheckController_List_SortAndPaginate(t *testing.T) {
	svc := &mockQualityCheckService{listFn: func(ctx context.Context) ([]Record, error) {
		return []Record{
			{ID: 1, CodiceArticolo: "C"},
			{ID: 2, CodiceArticolo: "a"},
			{ID: 3, CodiceArticolo: "B"},
		}, nil
	}}
	r, _ := setupQualityCheckRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/quality-checks?sort=codiceArticolo&pageSize=2&page=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Data table.Page[Record] `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.TotalPages != 2 || len(resp.Data.Items) != 1 || resp.Data.Items[0].ID != 1 {
		t.Fatalf("page = %+v", resp.Data)
	}
}

func TestQualityCheckController_List_SearchEnabledLabel(t *testing.T) {
	svc := &mockQualityCheckService{listFn: func(ctx context.Context) ([]Record, error) {
		return []Record{{ID: 1, AbilitaCQ: true}, {ID: 2}}, nil
	}}
	r, _ := setupQualityCheckRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/quality-checks?q=DISABILITATO", nil))

	var resp struct {
		Data table.Page[Record] `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.Filtered != 1 || resp.Data.Items[0].ID != 2 {
		t.Fatalf("page = %+v", resp.Data)
	}
}

func TestQualityCheckController_Create_Validation(t *testing.T) {
	called := false
	svc := &mockQualityCheckService{createFn: func(ctx context.Context, in Input) (*Record, error) {
		called = true
		return &Record{ID: 1}, nil
	}}
	r, _ := setupQualityCheckRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/quality-checks",
		`{"codLineaProd":"L1","codPostazione":"S1","codiceArticolo":"`+strings.Repeat("9", 19)+`"}`))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if called {
		t.Fatalf("service called despite invalid form")
	}
}

func TestQualityCheckController_Create_Success(t *testing.T) {
	lists := 0
	svc := &mockQualityCheckService{
		listFn: func(ctx context.Context) ([]Record, error) {
			lists++
			return []Record{}, nil
		},
		createFn: func(ctx context.Context, in Input) (*Record, error) {
			return &Record{ID: 9, CodLineaProd: in.CodLineaProd, CodPostazione: in.CodPostazione, CodiceArticolo: in.CodiceArticolo}, nil
		},
	}
	r, _ := setupQualityCheckRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/quality-checks",
		`{"codLineaProd":"L1","codPostazione":"S1","codiceArticolo":"ART-9","abilitaCQ":true}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var resp backend.Result[Record]
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success || resp.Data.ID != 9 || resp.Message != "Record creato con successo" {
		t.Fatalf("resp = %+v", resp)
	}
	if lists != 1 {
		t.Fatalf("list fetches = %d, want 1", lists)
	}
}

func TestQualityCheckController_Update_BusyWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	svc := &mockQualityCheckService{updateFn: func(ctx context.Context, id int, in Input) (*Record, error) {
		close(started)
		<-release
		return &Record{ID: id}, nil
	}}
	r, _ := setupQualityCheckRouter(svc)

	body := `{"codLineaProd":"L1","codPostazione":"S1","codiceArticolo":"A"}`
	var wg sync.WaitGroup
	first := httptest.NewRecorder()
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.ServeHTTP(first, jsonRequest(http.MethodPut, "/api/quality-checks/5", body))
	}()
	<-started

	second := httptest.NewRecorder()
	r.ServeHTTP(second, jsonRequest(http.MethodPut, "/api/quality-checks/5", body))
	close(release)
	wg.Wait()

	if second.Code != http.StatusConflict {
		t.Fatalf("second status = %d, want %d", second.Code, http.StatusConflict)
	}
	if first.Code != http.StatusOK {
		t.Fatalf("first status = %d, want %d", first.Code, http.StatusOK)
	}
}

func TestQualityCheckController_Delete_BackendFailure(t *testing.T) {
	svc := &mockQualityCheckService{deleteFn: func(ctx context.Context, id int) error {
		return &backend.Error{Status: 0, Message: "connection refused"}
	}}
	r, res := setupQualityCheckRouter(svc)
	token, _ := res.Confirm.Request(res.Scope, "3")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/quality-checks/3?confirm="+token, nil))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	var resp backend.Result[any]
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Success || resp.Message != "connection refused" {
		t.Fatalf("resp = %+v", resp)
	}
}
