package catalog

import (
	"context"
	"encoding/json"

	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/util"
)

type CatalogService struct {
	Client *backend.Client
}

func (s *CatalogService) LineStations(ctx context.Context) ([]LineStations, error) {
	var raw json.RawMessage
	if err := s.Client.Get(ctx, "/api/V_AG_LINEE_POSTAZIONI", nil, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeList[LineStations](raw)
}

func (s *CatalogService) Categories(ctx context.Context) ([]Tipologia, error) {
	var raw json.RawMessage
	if err := s.Client.Get(ctx, "/api/Tipologie", nil, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeList[Tipologia](raw)
}

// Lines lists the production lines in catalog order.
func Lines(rows []LineStations) []Option {
	out := make([]Option, 0, len(rows))
	for _, r := range rows {
		out = append(out, Option{Value: r.CodLineaProd, Label: r.CodLineaProd})
	}
	return out
}

// StationsForLine expands the stations of line, splitting comma-joined
// entries and dropping duplicates. Unknown lines yield an empty list.
func StationsForLine(rows []LineStations, line string) []Option {
	out := []Option{}
	for _, r := range rows {
		if r.CodLineaProd != line {
			continue
		}
		for _, st := range util.SplitList(r.CodPostazione...) {
			out = append(out, Option{Value: st, Label: st})
		}
		break
	}
	return out
}
