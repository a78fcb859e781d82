package acquisition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/util"
)

var ErrKeysRequired = errors.New("Linea di produzione e postazione sono richieste")

const NoneForPairMessage = "Nessuna acquisizione trovata per questa combinazione"

var exportFormats = map[string]bool{"csv": true, "excel": true, "xlsx": true, "json": true}

type AcquisitionService struct {
	Client *backend.Client
}

// Latest returns the current feed. A single-object reply becomes a one-item list.
func (s *AcquisitionService) Latest(ctx context.Context) ([]Acquisition, error) {
	var raw json.RawMessage
	if err := s.Client.Get(ctx, "/api/acquisizioni/latest", nil, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeList[Acquisition](raw)
}

// LatestSingle returns the newest acquisition for a line/station pair, or nil
// when the backend has none (404).
func (s *AcquisitionService) LatestSingle(ctx context.Context, line, station string) (*Acquisition, error) {
	line, station = strings.TrimSpace(line), strings.TrimSpace(station)
	if line == "" || station == "" {
		return nil, ErrKeysRequired
	}

	path := fmt.Sprintf("/api/acquisizioni/latest-single/line/%s/station/%s", url.PathEscape(line), url.PathEscape(station))
	var raw json.RawMessage
	if err := s.Client.Get(ctx, path, nil, &raw); err != nil {
		if backend.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return backend.DecodeOne[Acquisition](raw)
}

func (s *AcquisitionService) ByID(ctx context.Context, id int) (*Acquisition, error) {
	if id <= 0 {
		return nil, errors.New("valid acquisition id is required")
	}
	var raw json.RawMessage
	if err := s.Client.Get(ctx, "/api/acquisizioni/"+strconv.Itoa(id), nil, &raw); err != nil {
		return nil, err
	}
	a, err := backend.DecodeOne[Acquisition](raw)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &backend.Error{Status: http.StatusNotFound, Message: "Acquisizione non trovata"}
	}
	return a, nil
}

func (s *AcquisitionService) List(ctx context.Context, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var raw json.RawMessage
	if err := s.Client.Get(ctx, "/api/acquisizioni", q, &raw); err != nil {
		return nil, err
	}
	return decodePage(raw, page, pageSize)
}

func (s *AcquisitionService) Range(ctx context.Context, r util.DateRange) ([]Acquisition, error) {
	if !r.HasStart || !r.HasEnd {
		return nil, errors.New("startDate and endDate are required")
	}
	q := url.Values{}
	q.Set("startDate", r.Start.UTC().Format(time.RFC3339Nano))
	q.Set("endDate", r.End.UTC().Format(time.RFC3339Nano))

	var raw json.RawMessage
	if err := s.Client.Get(ctx, "/api/acquisizioni/range", q, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeList[Acquisition](raw)
}

// Filter lists acquisitions of one line/station pair.
func (s *AcquisitionService) Filter(ctx context.Context, line, station string) ([]Acquisition, error) {
	line, station = strings.TrimSpace(line), strings.TrimSpace(station)
	if line == "" || station == "" {
		return nil, ErrKeysRequired
	}
	q := url.Values{}
	q.Set("codLineaProd", line)
	q.Set("codPostazione", station)

	var raw json.RawMessage
	if err := s.Client.Get(ctx, "/api/AcquisizioniFilter", q, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeList[Acquisition](raw)
}

// Export proxies the backend's export. The caller closes the response body.
func (s *AcquisitionService) Export(ctx context.Context, format string) (*http.Response, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if !exportFormats[format] {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	return s.Client.Open(ctx, "/api/acquisizioni/export", url.Values{"format": {format}})
}

func (s *AcquisitionService) Health(ctx context.Context) (map[string]any, error) {
	return s.Client.Health(ctx)
}

// HubStatus asks the backend whether its push hub is up.
func (s *AcquisitionService) HubStatus(ctx context.Context) bool {
	return s.Client.Get(ctx, "/api/signalr/status", nil, nil) == nil
}

func decodePage(raw json.RawMessage, page, pageSize int) (*Page, error) {
	out := &Page{Page: page, PageSize: pageSize}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") || trimmed == "" || trimmed == "null" {
		items, err := backend.DecodeList[Acquisition](raw)
		if err != nil {
			return nil, err
		}
		out.Items = items
		out.TotalCount = len(items)
		return out, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	out.Items = []Acquisition{}
	for _, key := range []string{"items", "data", "acquisizioni", "results"} {
		if v, ok := env[key]; ok {
			items, err := backend.DecodeList[Acquisition](v)
			if err != nil {
				return nil, err
			}
			out.Items = items
			break
		}
	}
	out.TotalCount = len(out.Items)
	for _, key := range []string{"totalCount", "total", "totalItems", "count"} {
		if v, ok := env[key]; ok {
			var n int
			if json.Unmarshal(v, &n) == nil {
				out.TotalCount = n
				break
			}
		}
	}
	return out, nil
}
