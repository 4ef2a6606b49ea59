package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/newsletter/internal/emailclient"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

func TestStubHandler(t *testing.T) {
	var logs bytes.Buffer
	h := newStubHandler(stubOptions{Token: "secret", Status: http.StatusOK}, logger.New(&logs, logger.DEBUG, true))

	send := func(token, body string) int {
		req := httptest.NewRequest(http.MethodPost, "/email", strings.NewReader(body))
		req.Header.Set(emailclient.AuthHeader, token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	valid := `{"From":"a@example.com","To":"ursula@example.com","Subject":"Welcome!","HtmlBody":"h","TextBody":"t"}`
	assert.Equal(t, http.StatusOK, send("secret", valid))
	assert.Equal(t, http.StatusUnauthorized, send("wrong", valid))
	assert.Equal(t, http.StatusUnprocessableEntity, send("secret", `{"Subject":"x"}`))

	assert.Contains(t, logs.String(), "Welcome!")
	assert.NotContains(t, logs.String(), "ursula@example.com")
}

func TestStubHandler_ConfiguredFailure(t *testing.T) {
	h := newStubHandler(stubOptions{Status: http.StatusServiceUnavailable}, logger.New(nil, logger.ERROR, true))
	req := httptest.NewRequest(http.MethodPost, "/email", strings.NewReader(`{"From":"a@example.com","To":"b@example.com"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
