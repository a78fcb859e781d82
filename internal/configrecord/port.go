package configrecord

import "context"

type RecordServiceAPI interface {
	List(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, in Input) (*Record, error)
	UpdateValue(ctx context.Context, id int, valore string) (*Record, error)
	UpdateFull(ctx context.Context, id int, in Input) (*Record, error)
	Delete(ctx context.Context, id int) error
}
