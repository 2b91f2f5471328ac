package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"Lenxys/internal/domain/models"
	"Lenxys/internal/service/metrics"
	"Lenxys/internal/service/ratelimit"
	xhttp "Lenxys/pkg/http"
	applogger "Lenxys/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamConfig bounds the forecast stream.
type StreamConfig struct {
	Interval       time.Duration
	MaxSymbols     int
	ConnsPerSecond int
	DefaultSymbols []string
}

// StreamHandler pushes batch forecasts over a websocket.
type StreamHandler struct {
	svc      ForecastService
	cfg      StreamConfig
	rl       *ratelimit.Limiter
	upgrader websocket.Upgrader
	l        *applogger.Logger
}

func NewStreamHandler(svc ForecastService, cfg StreamConfig, l *applogger.Logger) *StreamHandler {
	if l == nil {
		l = applogger.Nop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.MaxSymbols <= 0 {
		cfg.MaxSymbols = 20
	}
	if cfg.ConnsPerSecond <= 0 {
		cfg.ConnsPerSecond = 5
	}
	metrics.Register()
	return &StreamHandler{
		svc: svc,
		cfg: cfg,
		rl:  ratelimit.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		l: l,
	}
}

func (h *StreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/forecasts", h.Forecasts)
}

type streamMessage struct {
	Type      string                `json:"type"`
	Forecasts []models.ForecastItem `json:"forecasts"`
}

func (h *StreamHandler) symbols(c echo.Context) []string {
	syms := xhttp.SplitCSV(c.QueryParam("symbols"))
	if len(syms) == 0 {
		syms = h.cfg.DefaultSymbols
	}
	if len(syms) > h.cfg.MaxSymbols {
		syms = syms[:h.cfg.MaxSymbols]
	}
	return syms
}

func (h *StreamHandler) Forecasts(c echo.Context) error {
	ip := c.RealIP()
	rps := float64(h.cfg.ConnsPerSecond)
	if !h.rl.Allow(ip, rps, rps) {
		h.l.Warn("stream rate_limited", applogger.String("remote", ip))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many connections", http.StatusTooManyRequests))
	}
	syms := h.symbols(c)
	if len(syms) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbols required"))
	}
	horizon := c.QueryParam("horizon")
	if horizon == "" {
		horizon = "1h"
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("stream upgrade failed", applogger.Error(err))
		return nil
	}
	defer conn.Close()
	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go h.readLoop(conn, cancel)

	h.l.Debug("stream opened", applogger.String("remote", ip), applogger.Strings("symbols", syms))
	h.writeLoop(ctx, conn, syms, horizon)
	return nil
}

// readLoop drains client frames so control messages are processed; it
// cancels the stream when the peer goes away.
func (h *StreamHandler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHandler) writeLoop(ctx context.Context, conn *websocket.Conn, syms []string, horizon string) {
	tick := time.NewTicker(h.cfg.Interval)
	defer tick.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var last uint64
	push := func() bool {
		b, err := h.payload(ctx, syms, horizon)
		if err != nil {
			h.l.Warn("stream forecast failed", applogger.Error(err))
			return ctx.Err() == nil
		}
		sum := xxhash.Sum64(b)
		if sum == last {
			return true
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return false
		}
		last = sum
		return true
	}

	if !push() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-tick.C:
			if !push() {
				return
			}
		}
	}
}

func (h *StreamHandler) payload(ctx context.Context, syms []string, horizon string) ([]byte, error) {
	items, err := h.svc.Batch(ctx, syms, horizon, time.Time{})
	if err != nil {
		return nil, err
	}
	return json.Marshal(streamMessage{Type: "forecast_update", Forecasts: items})
}
