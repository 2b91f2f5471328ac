package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

func TestStreamPushesOnlyChangedPayloads(t *testing.T) {
	f := &fakeForecasts{}
	h := NewStreamHandler(f, StreamConfig{Interval: 20 * time.Millisecond, MaxSymbols: 1}, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/forecasts?symbols=BTC,ETH&horizon=1h"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var msg streamMessage
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "forecast_update" || len(msg.Forecasts) != 1 || msg.Forecasts[0].Symbol != "BTC" {
		t.Fatalf("unexpected message %+v", msg)
	}

	// identical forecasts must not be re-sent
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("unchanged payload was pushed again")
	}
}

func TestStreamRejectsMissingSymbols(t *testing.T) {
	h := NewStreamHandler(&fakeForecasts{}, StreamConfig{}, nil)
	rec, _ := serve(t, h, http.MethodGet, "/ws/forecasts", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}
