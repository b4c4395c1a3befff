package handler

import (
	"net/http"
	"testing"
)

func TestHealth(t *testing.T) {
	rec := doJSON(t, Health, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "ok" {
		t.Errorf("body = %q, want ok", got)
	}
}
