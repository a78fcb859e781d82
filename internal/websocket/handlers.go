package websocket

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"smartmob-dashboard/internal/logger"
	"smartmob-dashboard/internal/poller"
	"smartmob-dashboard/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// NewUpgrader accepts same-host origins and the configured ones. "*" allows
// every origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		},
	}
}

type PollerFactory func() *poller.Poller

type StreamController struct {
	Hub       *Hub
	Sync      *realtime.Sync
	NewPoller PollerFactory
	Upgrader  *websocket.Upgrader
	Logger    *logger.Logger
}

// Acquisitions streams the live list: the current snapshot first, then every
// later snapshot and notification the relay broadcasts.
func (sc *StreamController) Acquisitions(c *gin.Context) {
	if sc.Sync == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sincronizzazione in tempo reale non attiva"})
		return
	}
	conn, err := sc.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sc.Logger.Warning("websocket upgrade: %v", err)
		return
	}

	client := NewClient(conn)
	if msg, err := Encode(TypeSnapshot, sc.Sync.Snapshot()); err == nil {
		client.Queue(msg)
	}
	if !sc.Hub.Register(client) {
		conn.Close()
		return
	}
	go writePump(conn, client.send)

	readPump(conn, nil)
	sc.Hub.Unregister(client)
}

type keysMessage struct {
	Line    string `json:"line"`
	Station string `json:"station"`
}

// LatestSingle runs one poller for this view. The view switches pairs by
// sending {"line":..,"station":..}; closing the socket closes the poller.
func (sc *StreamController) LatestSingle(c *gin.Context) {
	conn, err := sc.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sc.Logger.Warning("websocket upgrade: %v", err)
		return
	}

	p := sc.NewPoller()
	updates, _ := p.Subscribe()
	send := make(chan []byte, sendBuffer)
	go writePump(conn, send)
	go func() {
		defer close(send)
		for snap := range updates {
			if msg, err := Encode(TypeLatest, snap); err == nil {
				queue(send, msg)
			}
		}
	}()

	p.SetKeys(c.Query("line"), c.Query("station"))
	readPump(conn, func(raw []byte) {
		var keys keysMessage
		if err := json.Unmarshal(raw, &keys); err != nil {
			if msg, err := Encode(TypeError, "messaggio non valido: atteso {\"line\",\"station\"}"); err == nil {
				queue(send, msg)
			}
			return
		}
		p.SetKeys(keys.Line, keys.Station)
	})
	p.Close()
}

func queue(send chan<- []byte, msg []byte) {
	select {
	case send <- msg:
	default:
	}
}

func RegisterRoutes(r *gin.Engine, controller *StreamController, gate gin.HandlerFunc) {
	group := r.Group("/ws")
	group.Use(gate)
	{
		group.GET("/acquisizioni", controller.Acquisitions)
		group.GET("/latest-single", controller.LatestSingle)
	}
}
