package mediadevice

import (
	"context"
	"net/http"
	"strconv"

	"smartmob-dashboard/internal/crud"
	"smartmob-dashboard/internal/datastore"
	"smartmob-dashboard/internal/table"

	"github.com/gin-gonic/gin"
)

type MediaDeviceController struct {
	Service  MediaDeviceServiceAPI
	Resource *crud.Resource[Record]
}

func NewResource(svc MediaDeviceServiceAPI, opts datastore.Options, confirm *table.Confirmations) *crud.Resource[Record] {
	return &crud.Resource[Record]{
		Scope:   "media-devices",
		Store:   datastore.New[Record]("media-devices", svc.List, opts),
		Columns: Columns,
		Rules:   Rules,
		ID:      func(r Record) int { return r.ID },
		Values:  Record.values,
		Confirm: confirm,
		Messages: crud.Messages{
			Loaded:  "Dispositivi multimediali caricati con successo",
			Created: "Dispositivo multimediale creato con successo",
			Updated: "Dispositivo multimediale aggiornato con successo",
			Deleted: "Dispositivo multimediale eliminato con successo",
		},
		Remove: svc.Delete,
	}
}

func (mc *MediaDeviceController) Create(c *gin.Context) {
	crud.Write(c, mc.Resource, http.StatusCreated, "create", mc.Resource.Messages.Created, Rules,
		func(ctx context.Context, in Input) (any, error) {
			return mc.Service.Create(ctx, in)
		})
}

func (mc *MediaDeviceController) Update(c *gin.Context) {
	id, ok := crud.ParseID(c)
	if !ok {
		return
	}
	crud.Write(c, mc.Resource, http.StatusOK, "update:"+strconv.Itoa(id), mc.Resource.Messages.Updated, Rules,
		func(ctx context.Context, in Input) (any, error) {
			return mc.Service.Update(ctx, id, in)
		})
}
