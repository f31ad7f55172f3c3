// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package strobe_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/torch"
	"github.com/warthog618/torch/mockup"
	"github.com/warthog618/torch/strobe"
)

type recorder struct {
	mu     sync.Mutex
	states []bool
	failAt int
	// fail this many off toggles
	failOff int
	err     error
}

func (r *recorder) Toggle(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil && len(r.states) == r.failAt {
		return r.err
	}
	if !on && r.failOff > 0 {
		r.failOff--
		return r.err
	}
	r.states = append(r.states, on)
	return nil
}

func (r *recorder) Snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

func checkAlternates(t *testing.T, ss []bool) {
	t.Helper()
	require.NotEmpty(t, ss)
	assert.True(t, ss[0])
	for i := 1; i < len(ss); i++ {
		assert.NotEqual(t, ss[i-1], ss[i], i)
	}
	assert.False(t, ss[len(ss)-1])
}

func TestRun(t *testing.T) {
	r := recorder{}
	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	err := strobe.Run(ctx, &r, 20*time.Millisecond)
	assert.Nil(t, err)
	ss := r.Snapshot()
	assert.GreaterOrEqual(t, len(ss), 3)
	checkAlternates(t, ss)
}

func TestRunInvalidPeriod(t *testing.T) {
	r := recorder{}
	err := strobe.Run(context.Background(), &r, 0)
	assert.Equal(t, strobe.ErrInvalidPeriod, err)
	assert.Empty(t, r.Snapshot())
}

func TestRunError(t *testing.T) {
	terr := errors.New("toggle failed")

	// first toggle
	r := recorder{err: terr}
	err := strobe.Run(context.Background(), &r, 10*time.Millisecond)
	assert.Equal(t, terr, err)
	assert.Empty(t, r.Snapshot())

	// mid strobe
	r = recorder{err: terr, failAt: 3}
	err = strobe.Run(context.Background(), &r, 10*time.Millisecond)
	assert.Equal(t, terr, err)
	assert.Equal(t, []bool{true, false, true}, r.Snapshot())
}

func TestRunOffError(t *testing.T) {
	terr := errors.New("toggle failed")
	r := recorder{err: terr, failAt: -1, failOff: 1}
	err := strobe.Run(context.Background(), &r, 10*time.Millisecond)
	assert.Equal(t, terr, err)
	// the torch is turned off after the failed step
	assert.Equal(t, []bool{true, false}, r.Snapshot())
}

func TestStroberErrorHandler(t *testing.T) {
	terr := errors.New("toggle failed")
	r := recorder{err: terr, failAt: -1, failOff: 1}
	errs := make(chan error, 1)
	var s *strobe.Strober
	s = strobe.New(&r, 10*time.Millisecond, strobe.WithErrorHandler(func(err error) {
		assert.False(t, s.Running())
		errs <- err
	}))
	err := s.Start()
	require.Nil(t, err)
	select {
	case err = <-errs:
		assert.Equal(t, terr, err)
	case <-time.After(time.Second):
		assert.Fail(t, "error handler not called")
	}
	assert.Equal(t, []bool{true, false}, r.Snapshot())
	assert.Equal(t, terr, s.Stop())

	// not called on a clean stop
	r = recorder{}
	called := false
	s = strobe.New(&r, 10*time.Millisecond, strobe.WithErrorHandler(func(err error) {
		called = true
	}))
	require.Nil(t, s.Start())
	time.Sleep(15 * time.Millisecond)
	assert.Nil(t, s.Stop())
	assert.False(t, called)
}

func TestStrober(t *testing.T) {
	r := recorder{}
	s := strobe.New(&r, 10*time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, s.Period())
	assert.False(t, s.Running())

	// stop when stopped
	assert.Nil(t, s.Stop())

	err := s.Start()
	require.Nil(t, err)
	assert.True(t, s.Running())
	assert.Equal(t, []bool{true}, r.Snapshot()[:1])

	// start when running
	err = s.Start()
	assert.Nil(t, err)

	time.Sleep(30 * time.Millisecond)
	err = s.Stop()
	assert.Nil(t, err)
	assert.False(t, s.Running())
	ss := r.Snapshot()
	assert.GreaterOrEqual(t, len(ss), 3)
	checkAlternates(t, ss)

	// restart
	err = s.Start()
	assert.Nil(t, err)
	assert.True(t, s.Running())
	assert.Nil(t, s.Stop())
}

func TestStroberError(t *testing.T) {
	terr := errors.New("toggle failed")
	r := recorder{err: terr}
	s := strobe.New(&r, 10*time.Millisecond)
	err := s.Start()
	assert.Equal(t, terr, err)
	assert.False(t, s.Running())

	s = strobe.New(&r, 0)
	err = s.Start()
	assert.Equal(t, strobe.ErrInvalidPeriod, err)

	// mid strobe failure is reported by Stop
	r = recorder{err: terr, failAt: 2}
	s = strobe.New(&r, 10*time.Millisecond)
	err = s.Start()
	require.Nil(t, err)
	time.Sleep(40 * time.Millisecond)
	assert.False(t, s.Running())
	err = s.Stop()
	assert.Equal(t, terr, err)
}

func TestStrobeDevice(t *testing.T) {
	m := mockup.New()
	d := torch.New(m, torch.WithKeepHeld)
	s := strobe.New(d, 10*time.Millisecond)
	err := s.Start()
	require.Nil(t, err)
	time.Sleep(35 * time.Millisecond)
	err = s.Stop()
	assert.Nil(t, err)
	assert.False(t, d.IsOn())
	assert.False(t, m.IsLit())
	assert.Equal(t, 1, m.Opens())
	assert.GreaterOrEqual(t, len(m.History()), 3)
	d.Release()
}
