package configrecord

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"smartmob-dashboard/internal/backend"
)

const basePath = "/api/DatabaseRecords"

type RecordService struct {
	Client *backend.Client
}

func (s *RecordService) List(ctx context.Context) ([]Record, error) {
	var raw json.RawMessage
	if err := s.Client.Get(ctx, basePath, nil, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeList[Record](raw)
}

func (s *RecordService) Create(ctx context.Context, in Input) (*Record, error) {
	var raw json.RawMessage
	if err := s.Client.Post(ctx, basePath, in.trimmed(), &raw); err != nil {
		return nil, err
	}
	return backend.DecodeOne[Record](raw)
}

func (s *RecordService) UpdateValue(ctx context.Context, id int, valore string) (*Record, error) {
	var raw json.RawMessage
	body := ValueInput{Valore: strings.TrimSpace(valore)}
	if err := s.Client.Put(ctx, basePath+"/"+strconv.Itoa(id), body, &raw); err != nil {
		return nil, err
	}
	return backend.DecodeOne[Record](raw)
}

func (s *RecordService) UpdateFull(ctx context.Context, id int, in Input) (*Record, error) {
	var raw json.RawMessage
	if err := s.Client.Put(ctx, basePath+"/"+strconv.Itoa(id)+"/full", in.trimmed(), &raw); err != nil {
		return nil, err
	}
	return backend.DecodeOne[Record](raw)
}

func (s *RecordService) Delete(ctx context.Context, id int) error {
	return s.Client.Delete(ctx, basePath+"/"+strconv.Itoa(id), nil)
}
