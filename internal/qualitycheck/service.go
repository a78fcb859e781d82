package qualitycheck

import (
	"context"
	"encoding/json"
	"strconv"

	"smartmob-dashboard/internal/backend"
)

const basePath = "/api/ControlloQualita"

type QualityCheckService struct {
	Client *backend.Client
}

// List returns every quality-check record. The backend answers 404 while the
// endpoint is not deployed; that is an empty list, not an error.
func (s *QualityCheckService) List(ctx context.Context) ([]Record, error) {
	var raw json.RawMessage
	if err := s.Client.Get(ctx, basePath, nil, &raw); err != nil {
		if backend.IsNotFound(err) {
			return []Record{}, nil
		}
		return nil, err
	}
	return backend.DecodeList[Record](raw)
}

func (s *QualityCheckService) Create(ctx context.Context, in Input) (*Record, error) {
	var raw json.RawMessage
	if err := s.Client.Post(ctx, basePath, in.trimmed(), &raw); err != nil {
		return nil, err
	}
	return backend.DecodeOne[Record](raw)
}

func (s *QualityCheckService) Update(ctx context.Context, id int, in Input) (*Record, error) {
	var raw json.RawMessage
	if err := s.Client.Put(ctx, basePath+"/"+strconv.Itoa(id), in.trimmed(), &raw); err != nil {
		return nil, err
	}
	return backend.DecodeOne[Record](raw)
}

func (s *QualityCheckService) Delete(ctx context.Context, id int) error {
	return s.Client.Delete(ctx, basePath+"/"+strconv.Itoa(id), nil)
}
