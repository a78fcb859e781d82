package acquisition

import (
	"context"
	"net/http"

	"smartmob-dashboard/internal/util"
)

type AcquisitionServiceAPI interface {
	Latest(ctx context.Context) ([]Acquisition, error)
	LatestSingle(ctx context.Context, line, station string) (*Acquisition, error)
	ByID(ctx context.Context, id int) (*Acquisition, error)
	List(ctx context.Context, page, pageSize int) (*Page, error)
	Range(ctx context.Context, r util.DateRange) ([]Acquisition, error)
	Filter(ctx context.Context, line, station string) ([]Acquisition, error)
	Export(ctx context.Context, format string) (*http.Response, error)
	Health(ctx context.Context) (map[string]any, error)
	HubStatus(ctx context.Context) bool
}
