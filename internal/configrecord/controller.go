package configrecord

import (
	"context"
	"net/http"
	"strconv"

	"smartmob-dashboard/internal/crud"
	"smartmob-dashboard/internal/datastore"
	"smartmob-dashboard/internal/table"

	"github.com/gin-gonic/gin"
)

const (
	msgLoaded  = "Record caricati con successo"
	msgCreated = "Record creato con successo"
	msgUpdated = "Record aggiornato con successo"
	msgDeleted = "Record eliminato con successo"
)

type RecordController struct {
	Service  RecordServiceAPI
	Resource *crud.Resource[Record]
}

// NewResource builds the cached list and the shared handlers for
// configuration records.
func NewResource(svc RecordServiceAPI, opts datastore.Options, confirm *table.Confirmations) *crud.Resource[Record] {
	return &crud.Resource[Record]{
		Scope:    "records",
		Store:    datastore.New[Record]("records", svc.List, opts),
		Columns:  Columns,
		Rules:    Rules,
		ID:       func(r Record) int { return r.ID },
		Values:   Record.values,
		Confirm:  confirm,
		Messages: crud.Messages{Loaded: msgLoaded, Created: msgCreated, Updated: msgUpdated, Deleted: msgDeleted},
		Remove:   svc.Delete,
	}
}

func (rc *RecordController) Create(c *gin.Context) {
	crud.Write(c, rc.Resource, http.StatusCreated, "create", msgCreated, Rules,
		func(ctx context.Context, in Input) (any, error) {
			return rc.Service.Create(ctx, in)
		})
}

// UpdateValue edits only the valore field.
func (rc *RecordController) UpdateValue(c *gin.Context) {
	id, ok := crud.ParseID(c)
	if !ok {
		return
	}
	crud.Write(c, rc.Resource, http.StatusOK, "update:"+strconv.Itoa(id), msgUpdated, valueRules,
		func(ctx context.Context, in ValueInput) (any, error) {
			return rc.Service.UpdateValue(ctx, id, in.Valore)
		})
}

func (rc *RecordController) UpdateFull(c *gin.Context) {
	id, ok := crud.ParseID(c)
	if !ok {
		return
	}
	crud.Write(c, rc.Resource, http.StatusOK, "update:"+strconv.Itoa(id), msgUpdated, Rules,
		func(ctx context.Context, in Input) (any, error) {
			return rc.Service.UpdateFull(ctx, id, in)
		})
}
