package mediadevice

import (
	"context"
	"encoding/json"
	"strconv"

	"smartmob-dashboard/internal/backend"
)

const basePath = "/api/DispositiviMultimediali"

type MediaDeviceService struct {
	Client *backend.Client
}

func (s *MediaDeviceService) List(ctx context.Context) ([]Record, error) {
	var raw json.RawMessage
	if err := s.Client.Get(ctx, basePath, nil, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeList[Record](raw)
}

func (s *MediaDeviceService) Create(ctx context.Context, in Input) (*Record, error) {
	var raw json.RawMessage
	if err := s.Client.Post(ctx, basePath, in.trimmed(), &raw); err != nil {
		return nil, err
	}
	return backend.DecodeOne[Record](raw)
}

func (s *MediaDeviceService) Update(ctx context.Context, id int, in Input) (*Record, error) {
	var raw json.RawMessage
	if err := s.Client.Put(ctx, basePath+"/"+strconv.Itoa(id), in.trimmed(), &raw); err != nil {
		return nil, err
	}
	return backend.DecodeOne[Record](raw)
}

func (s *MediaDeviceService) Delete(ctx context.Context, id int) error {
	return s.Client.Delete(ctx, basePath+"/"+strconv.Itoa(id), nil)
}
