package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type simBody struct {
	Symbol   string `json:"symbol" validate:"required"`
	Interval string `json:"interval" default:"1m" validate:"oneof=1m 1h"`
	Limit    int    `json:"limit" validate:"gte=0"`
}

func bindJSON(t *testing.T, body string, dst interface{}) interface{} {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return ReadAndValidateRequest(e.NewContext(req, httptest.NewRecorder()), dst)
}

func TestReadAndValidateAppliesDefaults(t *testing.T) {
	var b simBody
	if verr := bindJSON(t, `{"symbol":"BTC/USDT"}`, &b); verr != nil {
		t.Fatalf("unexpected validation error %+v", verr)
	}
	if b.Interval != "1m" {
		t.Fatalf("default not applied: %+v", b)
	}
}

func TestReadAndValidateReportsFields(t *testing.T) {
	var b simBody
	verr := bindJSON(t, `{"interval":"2h","limit":-1}`, &b)
	errs, ok := verr.([]ValidationError)
	if !ok || len(errs) != 3 {
		t.Fatalf("want 3 validation errors, got %#v", verr)
	}
	codes := map[string]string{}
	for _, e := range errs {
		codes[e.Field] = e.Code
	}
	if codes["Symbol"] != "ERR_REQUIRED" || codes["Interval"] != "ERR_ONEOF" || codes["Limit"] != "ERR_GTE" {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestReadAndValidateBadJSON(t *testing.T) {
	var b simBody
	errs, ok := bindJSON(t, `{"symbol":`, &b).([]ValidationError)
	if !ok || len(errs) != 1 || errs[0].Code != "ERR_BAD_REQUEST" {
		t.Fatalf("want one bind error, got %#v", errs)
	}
}
