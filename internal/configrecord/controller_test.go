package configrecord

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/crud"
	"smartmob-dashboard/internal/datastore"
	"smartmob-dashboard/internal/notify"
	"smartmob-dashboard/internal/table"

	"github.com/gin-gonic/gin"
)

// fakeBackend is an in-memory /api/DatabaseRecords.
type fakeBackend struct {
	mu      sync.Mutex
	records map[int]Record
	nextID  int
	lists   int
	bodies  []string
}

func newFakeBackend(seed ...Record) *fakeBackend {
	fb := &fakeBackend{records: map[int]Record{}, nextID: 100}
	for _, r := range seed {
		fb.records[r.ID] = r
	}
	return fb
}

func (fb *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	rest := strings.TrimPrefix(r.URL.Path, basePath)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	body := new(bytes.Buffer)
	body.ReadFrom(r.Body)
	fb.bodies = append(fb.bodies, r.Method+" "+r.URL.Path+" "+body.String())

	switch {
	case r.Method == http.MethodGet && rest == "":
		fb.lists++
		out := make([]Record, 0, len(fb.records))
		for _, rec := range fb.records {
			out = append(out, rec)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPost && rest == "":
		var in Input
		json.Unmarshal(body.Bytes(), &in)
		fb.nextID++
		rec := Record{ID: fb.nextID, Descrizione: in.Descrizione, Valore: in.Valore, CodLineaProd: in.CodLineaProd, Tipologia: in.Tipologia}
		fb.records[rec.ID] = rec
		json.NewEncoder(w).Encode(rec)
	case r.Method == http.MethodPut:
		id, _ := strconv.Atoi(parts[0])
		rec, ok := fb.records[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Record non trovato"}`))
			return
		}
		if len(parts) == 2 && parts[1] == "full" {
			var in Input
			json.Unmarshal(body.Bytes(), &in)
			rec.Descrizione, rec.Valore, rec.CodLineaProd, rec.Tipologia = in.Descrizione, in.Valore, in.CodLineaProd, in.Tipologia
		} else {
			var in ValueInput
			json.Unmarshal(body.Bytes(), &in)
			rec.Valore = in.Valore
		}
		fb.records[id] = rec
		json.NewEncoder(w).Encode(rec)
	case r.Method == http.MethodDelete:
		id, _ := strconv.Atoi(parts[0])
		delete(fb.records, id)
		w.Write([]byte(`{"success":true}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type harness struct {
	router  *gin.Engine
	backend *fakeBackend
	res     *crud.Resource[Record]
	bus     *notify.Bus
}

func newHarness(t *testing.T, seed ...Record) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fb := newFakeBackend(seed...)
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	svc := &RecordService{Client: backend.NewClient(srv.URL, 5*time.Second, false)}
	bus := notify.NewBus()
	res := NewResource(svc, datastore.Options{Bus: bus}, table.NewConfirmations(time.Minute))

	r := gin.New()
	RegisterRoutes(r, svc, res, func(c *gin.Context) { c.Next() })
	return &harness{router: r, backend: fb, res: res, bus: bus}
}

func (h *harness) do(method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type listResponse struct {
	Data table.Page[Record] `json:"data"`
}

func (h *harness) list(t *testing.T, query string) table.Page[Record] {
	t.Helper()
	w := h.do(http.MethodGet, "/api/records"+query, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return resp.Data
}

func TestRecords_CreateThenDeleteRoundTrip(t *testing.T) {
	h := newHarness(t, Record{ID: 1, Descrizione: "Percorso immagini", Valore: "/mnt/a", Tipologia: "1"})

	if got := h.list(t, ""); got.Total != 1 {
		t.Fatalf("initial total = %d", got.Total)
	}

	w := h.do(http.MethodPost, "/api/records", `{"descrizione":" Soglia ","valore":"0.8","tipologia":2}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created backend.Result[Record]
	json.Unmarshal(w.Body.Bytes(), &created)
	if !created.Success || created.Message != msgCreated || created.Data.ID != 101 {
		t.Fatalf("created = %+v", created)
	}
	if created.Data.Descrizione != "Soglia" {
		t.Fatalf("descrizione not trimmed: %q", created.Data.Descrizione)
	}

	page := h.list(t, "?q=soglia")
	if page.Filtered != 1 || page.Items[0].ID != 101 {
		t.Fatalf("after create = %+v", page)
	}

	w = h.do(http.MethodPost, "/api/records/101/delete-request", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete-request status = %d", w.Code)
	}
	var reqResp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &reqResp)

	w = h.do(http.MethodDelete, "/api/records/101?confirm="+reqResp.Token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}

	page = h.list(t, "")
	for _, rec := range page.Items {
		if rec.ID == 101 {
			t.Fatalf("deleted record still listed")
		}
	}

	recent := h.bus.Recent(10)
	if len(recent) != 2 || recent[0].Message != msgCreated || recent[1].Message != msgDeleted {
		t.Fatalf("notifications = %+v", recent)
	}
}

func TestRecords_MutationRefetchesExactlyOnce(t *testing.T) {
	h := newHarness(t, Record{ID: 1, Descrizione: "x", Valore: "a", Tipologia: "1"})

	h.list(t, "")
	before := h.res.Store.Fetches()

	w := h.do(http.MethodPut, "/api/records/1", `{"valore":"b"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := h.res.Store.Fetches() - before; got != 1 {
		t.Fatalf("refetches = %d, want 1", got)
	}
	if got := h.list(t, ""); got.Items[0].Valore != "b" {
		t.Fatalf("valore = %q", got.Items[0].Valore)
	}
}

func TestRecords_ValidationRejectsBeforeBackend(t *testing.T) {
	h := newHarness(t)

	long := strings.Repeat("d", 101)
	w := h.do(http.MethodPost, "/api/records", `{"descrizione":"`+long+`","valore":"","tipologia":""}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	var resp struct {
		Details  table.FieldErrors `json:"details"`
		Counters map[string]string `json:"counters"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Details) != 3 {
		t.Fatalf("details = %+v", resp.Details)
	}
	if resp.Counters["descrizione"] != "101/100 caratteri" {
		t.Fatalf("counters = %+v", resp.Counters)
	}

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	for _, b := range h.backend.bodies {
		if strings.HasPrefix(b, http.MethodPost) {
			t.Fatalf("backend called: %s", b)
		}
	}
}

func TestRecords_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, Record{ID: 7, Descrizione: "x", Valore: "a", Tipologia: "1"})

	w := h.do(http.MethodDelete, "/api/records/7", "")
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusPreconditionRequired)
	}

	w = h.do(http.MethodPost, "/api/records/8/delete-request", "")
	var reqResp struct {
		Token string `json:"token"`
	}
	json.Unmarshal(w.Body.Bytes(), &reqResp)

	w = h.do(http.MethodDelete, "/api/records/7?confirm="+reqResp.Token, "")
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("token for another id accepted: status = %d", w.Code)
	}
	if got := h.list(t, ""); got.Total != 1 {
		t.Fatalf("record deleted without confirmation")
	}
}

func TestRecords_UpdateFailureKeepsList(t *testing.T) {
	h := newHarness(t, Record{ID: 1, Descrizione: "x", Valore: "a", Tipologia: "1"})
	h.list(t, "")

	w := h.do(http.MethodPut, "/api/records/99/full", `{"descrizione":"d","valore":"v","tipologia":"1"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var resp backend.Result[any]
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Success || resp.Message != "Record non trovato" {
		t.Fatalf("resp = %+v", resp)
	}
	if n := h.bus.Recent(1); len(n) != 1 || n[0].Level != notify.Error {
		t.Fatalf("notification = %+v", n)
	}
}

func TestRecords_Detail(t *testing.T) {
	h := newHarness(t, Record{ID: 3, Descrizione: "Percorso", Valore: "/mnt/x", Tipologia: "1"})

	w := h.do(http.MethodGet, "/api/records/3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Data     Record            `json:"data"`
		Counters map[string]string `json:"counters"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.ID != 3 || resp.Counters["valore"] != "6/500 caratteri" {
		t.Fatalf("resp = %+v", resp)
	}

	if w := h.do(http.MethodGet, "/api/records/4", ""); w.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", w.Code)
	}
}
