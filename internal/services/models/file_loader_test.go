package models

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	domsvc "Lenxys/internal/domain/service"
)

func TestFileLoaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLoader(dir)
	err := l.Save(&LinearArtifact{
		ModelID:      "btc-1h-linear",
		Intercept:    0.001,
		Coefficients: map[string]float64{"return_1": 0.5, "rsi_14": -0.0001},
	})
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	h, err := l.Load(context.Background(), "btc-1h-linear")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	row := map[string]float64{"return_1": 0.02, "rsi_14": 50}
	got, err := h.Predict(context.Background(), row)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	intercept, cRet, cRSI := 0.001, 0.5, -0.0001
	want := intercept
	want += cRet * row["return_1"]
	want += cRSI * row["rsi_14"]
	if got != want {
		t.Fatalf("Predict=%v, expected %v", got, want)
	}
}

func TestLinearArtifactPredictIsStable(t *testing.T) {
	coef := map[string]float64{}
	row := map[string]float64{}
	for i, col := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		coef[col] = 0.1 * float64(i+1)
		row[col] = 0.3 / float64(i+1)
	}
	a := &LinearArtifact{ModelID: "m", Intercept: 0.001, Coefficients: coef}
	if err := a.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	first, _ := a.Predict(context.Background(), row)
	for i := 0; i < 50; i++ {
		got, _ := a.Predict(context.Background(), row)
		if got != first {
			t.Fatalf("call %d: Predict=%v, first call gave %v", i, got, first)
		}
	}

	unvalidated := &LinearArtifact{ModelID: "m", Intercept: 0.001, Coefficients: coef}
	if got, _ := unvalidated.Predict(context.Background(), row); got != first {
		t.Fatalf("unvalidated Predict=%v, expected %v", got, first)
	}
}

func TestFileLoaderMissingArtifact(t *testing.T) {
	l := NewFileLoader(t.TempDir())
	_, err := l.Load(context.Background(), "nope")
	if !errors.Is(err, domsvc.ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestFileLoaderCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileLoader(dir).Load(context.Background(), "bad")
	if err == nil || errors.Is(err, domsvc.ErrArtifactNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestFileLoaderUnmappableIDIsNotFound(t *testing.T) {
	l := NewFileLoader(t.TempDir())
	for _, id := range []string{"../etc/passwd", "BTC/USDT_1h_rf", `a\b`, ""} {
		if _, err := l.Load(context.Background(), id); !errors.Is(err, domsvc.ErrArtifactNotFound) {
			t.Fatalf("Load(%q): expected ErrArtifactNotFound, got %v", id, err)
		}
	}
}

func TestFileLoaderSaveRejectsUnmappableID(t *testing.T) {
	err := NewFileLoader(t.TempDir()).Save(&LinearArtifact{ModelID: "BTC/USDT_1h_rf"})
	if !errors.Is(err, ErrInvalidModelID) {
		t.Fatalf("expected ErrInvalidModelID, got %v", err)
	}
}

func TestFileLoaderList(t *testing.T) {
	dir := t.TempDir()
	l := NewFileLoader(dir)
	if ids, err := NewFileLoader(filepath.Join(dir, "absent")).List(); err != nil || len(ids) != 0 {
		t.Fatalf("missing dir: ids=%v err=%v", ids, err)
	}
	for _, id := range []string{"zeta", "alpha"} {
		if err := l.Save(&LinearArtifact{ModelID: id}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ids, err := l.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "zeta" {
		t.Fatalf("List=%v, expected [alpha zeta]", ids)
	}
}
