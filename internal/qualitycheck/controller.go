package qualitycheck

import (
	"context"
	"net/http"
	"strconv"

	"smartmob-dashboard/internal/crud"
	"smartmob-dashboard/internal/datastore"
	"smartmob-dashboard/internal/table"

	"github.com/gin-gonic/gin"
)

type QualityCheckController struct {
	Service  QualityCheckServiceAPI
	Resource *crud.Resource[Record]
}

func NewResource(svc QualityCheckServiceAPI, opts datastore.Options, confirm *table.Confirmations) *crud.Resource[Record] {
	return &crud.Resource[Record]{
		Scope:   "quality-checks",
		Store:   datastore.New[Record]("quality-checks", svc.List, opts),
		Columns: Columns,
		Rules:   Rules,
		ID:      func(r Record) int { return r.ID },
		Values:  Record.values,
		Confirm: confirm,
		Messages: crud.Messages{
			Loaded:  "Controlli qualità caricati con successo",
			Created: "Record creato con successo",
			Updated: "Record aggiornato con successo",
			Deleted: "Record eliminato con successo",
		},
		Remove: svc.Delete,
	}
}

func (qc *QualityCheckController) Create(c *gin.Context) {
	crud.Write(c, qc.Resource, http.StatusCreated, "create", qc.Resource.Messages.Created, Rules,
		func(ctx context.Context, in Input) (any, error) {
			return qc.Service.Create(ctx, in)
		})
}

func (qc *QualityCheckController) Update(c *gin.Context) {
	id, ok := crud.ParseID(c)
	if !ok {
		return
	}
	crud.Write(c, qc.Resource, http.StatusOK, "update:"+strconv.Itoa(id), qc.Resource.Messages.Updated, Rules,
		func(ctx context.Context, in Input) (any, error) {
			return qc.Service.Update(ctx, id, in)
		})
}
