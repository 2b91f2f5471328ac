package models

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domrepo "Lenxys/internal/domain/repository"
	domsvc "Lenxys/internal/domain/service"
)

func newModelServer(t *testing.T, failures *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/models/m1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"model_id": "m1"})
	})
	mux.HandleFunc("/models/m1/predict", func(w http.ResponseWriter, r *http.Request) {
		if *failures > 0 {
			*failures--
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"prediction": req.Features["return_1"] * 2})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteLoaderPredict(t *testing.T) {
	failures := 1
	srv := newModelServer(t, &failures)
	l := NewRemoteLoader(srv.URL, time.Second, 2)

	h, err := l.Load(context.Background(), "m1")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	got, err := h.Predict(context.Background(), map[string]float64{"return_1": 0.01})
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if got != 0.02 {
		t.Fatalf("Predict=%v, expected 0.02", got)
	}
}

func TestRemoteLoaderNotFound(t *testing.T) {
	failures := 0
	srv := newModelServer(t, &failures)
	_, err := NewRemoteLoader(srv.URL, time.Second, 1).Load(context.Background(), "missing")
	if !errors.Is(err, domsvc.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

type stubLoader struct {
	h   domrepo.ModelHandle
	err error
}

func (s stubLoader) Load(context.Context, string) (domrepo.ModelHandle, error) { return s.h, s.err }

func TestChainLoader(t *testing.T) {
	missing := stubLoader{err: domsvc.ErrArtifactNotFound}
	found := stubLoader{h: &LinearArtifact{ModelID: "x", Intercept: 1}}
	boom := stubLoader{err: errors.New("disk on fire")}

	if _, err := (ChainLoader{missing, found}).Load(context.Background(), "x"); err != nil {
		t.Fatalf("expected fallthrough to second loader, got %v", err)
	}
	if _, err := (ChainLoader{boom, found}).Load(context.Background(), "x"); err == nil || errors.Is(err, domsvc.ErrArtifactNotFound) {
		t.Fatalf("expected hard error to stop the chain, got %v", err)
	}
	if _, err := (ChainLoader{missing}).Load(context.Background(), "x"); !errors.Is(err, domsvc.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestChainLoaderFallsBackToRemoteForSlashID(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.EscapedPath() != "/models/BTC%2FUSDT_1h_rf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"model_id": "BTC/USDT_1h_rf"})
	}))
	t.Cleanup(srv.Close)

	chain := ChainLoader{NewFileLoader(t.TempDir()), NewRemoteLoader(srv.URL, time.Second, 1)}
	h, err := chain.Load(context.Background(), "BTC/USDT_1h_rf")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, ok := h.(*remoteHandle); !ok || hits != 1 {
		t.Fatalf("expected a remote handle after one lookup, got %T with %d hits", h, hits)
	}
}
