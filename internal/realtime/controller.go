package realtime

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"smartmob-dashboard/internal/acquisition"
	"smartmob-dashboard/internal/backend"
	"smartmob-dashboard/internal/table"

	"github.com/gin-gonic/gin"
)

type RealtimeController struct {
	Sync         *Sync
	Acquisitions acquisition.AcquisitionServiceAPI
}

type sendRequest struct {
	Method string `json:"method" binding:"required"`
	Args   []any  `json:"args"`
}

func status(s Snapshot) gin.H {
	return gin.H{
		"state":         s.State,
		"connection_id": s.ConnectionID,
		"last_updated":  s.LastUpdated,
		"record_count":  s.RecordCount,
		"error":         s.Error,
		"loading":       s.Loading,
		"attempt":       s.Attempt,
	}
}

// GetSnapshot returns the connection status plus the live list run through
// the table query (q, sort, dir, page, pageSize).
func (rc *RealtimeController) GetSnapshot(c *gin.Context) {
	q, err := table.ParseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap := rc.Sync.Snapshot()
	body := status(snap)
	body["message"] = "Stato tempo reale"
	body["data"] = table.Apply(snap.Records, acquisition.Columns, q)
	c.JSON(http.StatusOK, body)
}

func (rc *RealtimeController) connectResult(c *gin.Context, err error) {
	snap := rc.Sync.Snapshot()
	switch {
	case errors.Is(err, ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "status": status(snap)})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": status(snap)})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Connessione avviata", "status": status(snap)})
	}
}

func (rc *RealtimeController) Connect(c *gin.Context) {
	rc.connectResult(c, rc.Sync.Connect(c.Request.Context()))
}

func (rc *RealtimeController) Reconnect(c *gin.Context) {
	rc.connectResult(c, rc.Sync.Reconnect(c.Request.Context()))
}

func (rc *RealtimeController) Disconnect(c *gin.Context) {
	rc.Sync.Disconnect()
	c.JSON(http.StatusOK, gin.H{"message": "Disconnesso dal server", "status": status(rc.Sync.Snapshot())})
}

func (rc *RealtimeController) Refresh(c *gin.Context) {
	if err := rc.Sync.RefreshData(c.Request.Context()); err != nil {
		c.JSON(backend.HTTPStatus(err), gin.H{"error": backend.ErrorMessage(err), "status": status(rc.Sync.Snapshot())})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dati aggiornati", "status": status(rc.Sync.Snapshot())})
}

func (rc *RealtimeController) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := rc.Sync.SendMessage(c.Request.Context(), req.Method, req.Args...)
	if errors.Is(err, ErrNotConnected) {
		c.JSON(http.StatusServiceUnavailable, backend.Fail[any](err))
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, backend.Fail[any](err))
		return
	}
	c.JSON(http.StatusOK, backend.Ok[any](res, "Messaggio inviato"))
}

// Export downloads the live list as it is held right now.
func (rc *RealtimeController) Export(c *gin.Context) {
	ctype, name, body, err := acquisition.Export(rc.Sync.Snapshot().Records, c.DefaultQuery("format", "csv"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, ctype, body)
}

// GetLatestSingle is the one-shot form of the latest-single poller.
func (rc *RealtimeController) GetLatestSingle(c *gin.Context) {
	a, err := rc.Acquisitions.LatestSingle(c.Request.Context(), c.Query("line"), c.Query("station"))
	if err != nil {
		code := backend.HTTPStatus(err)
		if errors.Is(err, acquisition.ErrKeysRequired) {
			code = http.StatusBadRequest
		}
		c.JSON(code, gin.H{"error": backend.ErrorMessage(err)})
		return
	}
	if a == nil {
		c.JSON(http.StatusOK, backend.Ok[*acquisition.Acquisition](nil, acquisition.NoneForPairMessage))
		return
	}
	c.JSON(http.StatusOK, backend.Ok(a, "Acquisizione caricata con successo"))
}

// HealthController reports backend reachability and the push channel state.
type HealthController struct {
	Enabled      bool
	Acquisitions acquisition.AcquisitionServiceAPI
	Sync         *Sync
}

func (hc *HealthController) GetHealth(c *gin.Context) {
	body := gin.H{"backend_enabled": hc.Enabled}
	if hc.Sync != nil {
		body["realtime"] = status(hc.Sync.Snapshot())
	}
	if !hc.Enabled {
		body["status"] = "disabled"
		c.JSON(http.StatusOK, body)
		return
	}

	ctx := c.Request.Context()
	health, err := hc.Acquisitions.Health(ctx)
	if err != nil {
		body["status"] = "degraded"
		body["error"] = backend.ErrorMessage(err)
		body["hub"] = hc.Acquisitions.HubStatus(ctx)
		c.JSON(http.StatusOK, body)
		return
	}
	body["status"] = "ok"
	body["backend"] = health
	body["hub"] = hc.Acquisitions.HubStatus(ctx)
	c.JSON(http.StatusOK, body)
}
