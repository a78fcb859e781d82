package catalog

import "context"

type CatalogServiceAPI interface {
	LineStations(ctx context.Context) ([]LineStations, error)
	Categories(ctx context.Context) ([]Tipologia, error)
}
