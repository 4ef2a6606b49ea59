// Command stub-api is a local stand-in for the transactional email API.
// It accepts POST /email, logs the redacted recipient and subject, and
// answers with a fixed status. Nothing is delivered.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/newsletter/internal/emailclient"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

type stubOptions struct {
	// Token, when set, must match the auth header.
	Token string
	// Status is returned for every well-formed request.
	Status int
}

func newStubHandler(opts stubOptions, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"email-stub-api"}`))
	})

	r.Post("/email", func(w http.ResponseWriter, r *http.Request) {
		if opts.Token != "" && r.Header.Get(emailclient.AuthHeader) != opts.Token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req emailclient.SendEmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" || req.From == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}

		log.Info("email accepted",
			"request_id", middleware.GetReqID(r.Context()),
			"recipient", req.To,
			"subject", req.Subject,
			"status", opts.Status)
		w.WriteHeader(opts.Status)
	})
	return r
}

func main() {
	addr := flag.String("addr", "127.0.0.1:7000", "listen address")
	status := flag.Int("status", http.StatusOK, "status code returned for every email")
	flag.Parse()

	log := logger.Default().With("binary", "stub-api")
	log.Warn("this is a STUB email API for local testing only; no email is delivered")

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newStubHandler(stubOptions{Token: os.Getenv("EMAIL_AUTHORIZATION_TOKEN"), Status: *status}, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", *addr, "status", *status)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "stub-api: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("stopped")
}
