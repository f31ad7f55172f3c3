// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

// Package httpapi exposes a torch Service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/warthog618/torch"
	"github.com/warthog618/torch/service"
)

// RequestIDHeader carries the ID assigned to each request.
const RequestIDHeader = "X-Request-Id"

// Controller is the service controlled over HTTP.
type Controller interface {
	Toggle(ctx context.Context) (bool, error)
	Set(ctx context.Context, on bool) error
	IsOn() bool
	Widget() service.WidgetState
	Device() *torch.Device
}

// Status is the body returned by all torch endpoints.
type Status struct {
	On            bool   `json:"on"`
	Held          bool   `json:"held"`
	SupportsTorch bool   `json:"supports_torch"`
	Widget        string `json:"widget"`
	Error         string `json:"error,omitempty"`
}

type api struct {
	c      Controller
	logger *log.Logger
}

// Option modifies the router.
type Option func(*api)

// WithLogger specifies the logger for requests.
func WithLogger(l *log.Logger) Option {
	return func(a *api) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewRouter creates a router serving the controller.
func NewRouter(c Controller, options ...Option) *mux.Router {
	a := api{c: c, logger: log.New(io.Discard, "", 0)}
	for _, option := range options {
		option(&a)
	}
	r := mux.NewRouter()
	r.Use(a.requestID)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "OK\n")
	}).Methods("GET")
	r.HandleFunc("/torch", a.status).Methods("GET")
	r.HandleFunc("/torch/toggle", a.toggle).Methods("POST")
	r.HandleFunc("/torch/{state:on|off}", a.set).Methods("PUT")
	return r
}

func (a *api) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		a.logger.Printf("%s %s %s", id, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (a *api) status(w http.ResponseWriter, r *http.Request) {
	a.reply(w, r, nil)
}

func (a *api) toggle(w http.ResponseWriter, r *http.Request) {
	_, err := a.c.Toggle(r.Context())
	a.reply(w, r, err)
}

func (a *api) set(w http.ResponseWriter, r *http.Request) {
	on := mux.Vars(r)["state"] == "on"
	err := a.c.Set(r.Context(), on)
	a.reply(w, r, err)
}

func (a *api) reply(w http.ResponseWriter, r *http.Request, err error) {
	ds := a.c.Device().State()
	s := Status{
		On:            a.c.IsOn(),
		Held:          ds.Held,
		SupportsTorch: ds.SupportsTorch,
		Widget:        a.c.Widget().String(),
	}
	code := http.StatusOK
	if err != nil {
		s.Error = err.Error()
		code = statusCode(err)
		a.logger.Printf("%s %s", w.Header().Get(RequestIDHeader), err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(s)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, torch.ErrUnsupportedTorch),
		errors.Is(err, service.ErrStateUnchanged):
		return http.StatusConflict
	case errors.Is(err, torch.ErrNoCamera),
		errors.Is(err, torch.ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInterrupted):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
