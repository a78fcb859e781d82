package mediadevice

import "context"

type MediaDeviceServiceAPI interface {
	List(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, in Input) (*Record, error)
	Update(ctx context.Context, id int, in Input) (*Record, error)
	Delete(ctx context.Context, id int) error
}
