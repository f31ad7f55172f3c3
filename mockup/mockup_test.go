// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

package mockup_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/torch"
	"github.com/warthog618/torch/mockup"
)

func TestNew(t *testing.T) {
	m := mockup.New()
	require.NotNil(t, m)
	assert.False(t, m.IsOpen())
	assert.Equal(t, torch.FlashModeOff, m.FlashMode())
	assert.Equal(t, 0, m.Opens())
	assert.Equal(t, 0, m.Releases())
}

func TestOpen(t *testing.T) {
	m := mockup.New()
	c, err := m.Open()
	require.Nil(t, err)
	require.NotNil(t, c)
	assert.True(t, m.IsOpen())
	assert.Equal(t, 1, m.Opens())

	// busy
	c2, err := m.Open()
	assert.Equal(t, mockup.ErrBusy, err)
	assert.Nil(t, c2)

	// reopen after release
	err = c.Release()
	assert.Nil(t, err)
	assert.False(t, m.IsOpen())
	c, err = m.Open()
	assert.Nil(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 2, m.Opens())
	assert.Equal(t, 1, m.Releases())

	// injected error
	oerr := errors.New("open failed")
	m = mockup.New(mockup.WithOpenError(oerr))
	c, err = m.Open()
	assert.Equal(t, oerr, err)
	assert.Nil(t, c)
}

func TestParameters(t *testing.T) {
	patterns := []struct {
		name    string
		options []mockup.Option
		torch   bool
	}{
		{"default", nil, true},
		{"no flash", []mockup.Option{mockup.WithFlashModes()}, false},
		{"no torch", []mockup.Option{
			mockup.WithFlashModes(torch.FlashModeOff, torch.FlashModeAuto, torch.FlashModeOn),
		}, false},
		{"full", []mockup.Option{
			mockup.WithFlashModes(torch.FlashModeOff, torch.FlashModeAuto, torch.FlashModeOn,
				torch.FlashModeRedEye, torch.FlashModeTorch),
		}, true},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			m := mockup.New(p.options...)
			c, err := m.Open()
			require.Nil(t, err)
			defer c.Release()
			params, err := c.Parameters()
			require.Nil(t, err)
			assert.Equal(t, torch.FlashModeOff, params.FlashMode)
			assert.Equal(t, p.torch, params.Supports(torch.FlashModeTorch))
		}
		t.Run(p.name, tf)
	}
}

func TestSetParameters(t *testing.T) {
	m := mockup.New()
	c, err := m.Open()
	require.Nil(t, err)

	err = c.SetParameters(torch.Parameters{FlashMode: torch.FlashModeTorch})
	assert.Nil(t, err)
	assert.True(t, m.IsLit())

	err = c.SetParameters(torch.Parameters{FlashMode: torch.FlashModeAuto})
	assert.Equal(t, mockup.ErrUnsupportedMode{Mode: torch.FlashModeAuto}, err)
	assert.True(t, m.IsLit())

	serr := errors.New("set failed")
	m.SetSetError(serr)
	err = c.SetParameters(torch.Parameters{FlashMode: torch.FlashModeOff})
	assert.Equal(t, serr, err)
	assert.True(t, m.IsLit())
	m.SetSetError(nil)

	err = c.SetParameters(torch.Parameters{FlashMode: torch.FlashModeOff})
	assert.Nil(t, err)
	assert.False(t, m.IsLit())
	assert.Equal(t, []torch.FlashMode{torch.FlashModeTorch, torch.FlashModeOff}, m.History())
}

func TestPreview(t *testing.T) {
	m := mockup.New()
	c, err := m.Open()
	require.Nil(t, err)
	p, ok := c.(torch.Previewer)
	require.True(t, ok)

	err = p.SetPreviewDisplay("surface")
	assert.Nil(t, err)
	assert.Equal(t, "surface", m.Surface())
	err = p.StartPreview()
	assert.Nil(t, err)
	assert.True(t, m.IsPreviewing())
	err = p.StopPreview()
	assert.Nil(t, err)
	assert.False(t, m.IsPreviewing())
}

func TestRelease(t *testing.T) {
	m := mockup.New()
	c, err := m.Open()
	require.Nil(t, err)
	err = c.SetParameters(torch.Parameters{FlashMode: torch.FlashModeTorch})
	require.Nil(t, err)
	err = c.(torch.Previewer).StartPreview()
	require.Nil(t, err)

	err = c.Release()
	assert.Nil(t, err)
	assert.False(t, m.IsLit())
	assert.False(t, m.IsPreviewing())

	// released handle is dead
	err = c.Release()
	assert.Equal(t, mockup.ErrReleased, err)
	_, err = c.Parameters()
	assert.Equal(t, mockup.ErrReleased, err)
	err = c.SetParameters(torch.Parameters{FlashMode: torch.FlashModeTorch})
	assert.Equal(t, mockup.ErrReleased, err)
	assert.Equal(t, 1, m.Releases())

	// injected error still releases
	rerr := errors.New("release failed")
	m.SetReleaseError(rerr)
	c, err = m.Open()
	require.Nil(t, err)
	err = c.Release()
	assert.Equal(t, rerr, err)
	assert.False(t, m.IsOpen())
}
