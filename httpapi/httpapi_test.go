// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package httpapi_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/torch"
	"github.com/warthog618/torch/httpapi"
	"github.com/warthog618/torch/mockup"
	"github.com/warthog618/torch/service"
)

func newRouter(t *testing.T, m *mockup.Mockup, options ...httpapi.Option) http.Handler {
	t.Helper()
	s := service.New(torch.New(m))
	s.SurfaceCreated(nil)
	return httpapi.NewRouter(s, options...)
}

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, httpapi.Status) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var s httpapi.Status
	if rec.Header().Get("Content-Type") == "application/json" {
		err := json.Unmarshal(rec.Body.Bytes(), &s)
		require.Nil(t, err)
	}
	return rec, s
}

func TestHealth(t *testing.T) {
	h := newRouter(t, mockup.New())
	rec, _ := do(t, h, "GET", "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestStatus(t *testing.T) {
	h := newRouter(t, mockup.New())
	rec, s := do(t, h, "GET", "/torch")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, httpapi.Status{Widget: "off"}, s)
}

func TestToggle(t *testing.T) {
	m := mockup.New()
	h := newRouter(t, m)

	rec, s := do(t, h, "POST", "/torch/toggle")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, httpapi.Status{On: true, Held: true, SupportsTorch: true, Widget: "on"}, s)
	assert.True(t, m.IsLit())

	rec, s = do(t, h, "POST", "/torch/toggle")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, httpapi.Status{Widget: "off"}, s)
	assert.False(t, m.IsLit())

	// wrong method
	rec, _ = do(t, h, "GET", "/torch/toggle")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSet(t *testing.T) {
	m := mockup.New()
	h := newRouter(t, m)

	rec, s := do(t, h, "PUT", "/torch/on")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.On)
	assert.True(t, m.IsLit())

	rec, s = do(t, h, "PUT", "/torch/on")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, s.On)

	rec, s = do(t, h, "PUT", "/torch/off")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.On)
	assert.False(t, m.IsLit())

	rec, _ = do(t, h, "PUT", "/torch/dim")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrors(t *testing.T) {
	patterns := []struct {
		name string
		m    *mockup.Mockup
		code int
	}{
		{"unsupported", mockup.New(mockup.WithFlashModes()), http.StatusConflict},
		{"no camera", mockup.New(mockup.WithOpenError(errors.New("absent"))), http.StatusServiceUnavailable},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			h := newRouter(t, p.m)
			rec, s := do(t, h, "POST", "/torch/toggle")
			assert.Equal(t, p.code, rec.Code)
			assert.False(t, s.On)
			assert.NotEmpty(t, s.Error)
		}
		t.Run(p.name, tf)
	}

	// driver failure
	m := mockup.New()
	m.SetSetError(errors.New("set failed"))
	h := newRouter(t, m)
	rec, s := do(t, h, "PUT", "/torch/on")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, s.Error, "set failed")
	assert.True(t, s.Held)
}

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	h := newRouter(t, mockup.New(), httpapi.WithLogger(log.New(&buf, "", 0)))

	rec, _ := do(t, h, "GET", "/torch")
	id := rec.Header().Get(httpapi.RequestIDHeader)
	_, err := uuid.Parse(id)
	assert.Nil(t, err)
	assert.Contains(t, buf.String(), fmt.Sprintf("%s GET /torch", id))

	// provided ID is kept
	pid := uuid.New().String()
	req := httptest.NewRequest("GET", "/torch", nil)
	req.Header.Set(httpapi.RequestIDHeader, pid)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, pid, rec.Header().Get(httpapi.RequestIDHeader))

	// invalid ID is replaced
	req = httptest.NewRequest("GET", "/torch", nil)
	req.Header.Set(httpapi.RequestIDHeader, "bogus")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "bogus", rec.Header().Get(httpapi.RequestIDHeader))
}
