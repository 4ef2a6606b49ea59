package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatus_EmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Status(rec, http.StatusBadRequest)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("body = %q, want empty", rec.Body.String())
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"hi"}`))
	if !Decode(httptest.NewRecorder(), req, &dst) || dst.Title != "hi" {
		t.Fatalf("decode failed: %+v", dst)
	}

	rec := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	if Decode(rec, req, &dst) {
		t.Fatal("expected malformed JSON to fail")
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid JSON") {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x","extra":1}`))
	if Decode(rec, req, &dst) {
		t.Fatal("expected unknown field to fail")
	}
}
