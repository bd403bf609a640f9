// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/pkg/errors"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Window   WindowConfiguration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string

	// Validation loads the validation layers and the debug callback.
	Validation bool

	// VSync forces FIFO presentation even when mailbox is available.
	VSync bool

	// PipelineCache is the file pipeline cache data is kept in.
	// Empty disables persistence.
	PipelineCache string

	ClearColour mgl32.Vec3
}

// WindowConfiguration is used to configure the window
type WindowConfiguration struct {
	Title  string
	Width  int
	Height int
}

// DefaultConfiguration returns the configuration used when nothing is overridden.
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 0,
		},
		Renderer: RendererConfiguration{
			DeviceExtensions: []string{"VK_KHR_swapchain"},
			ClearColour:      mgl32.Vec3{0.2, 0.2, 0.2},
		},
		Window: WindowConfiguration{
			Title:  "frameloop",
			Width:  1280,
			Height: 720,
		},
	}
}

// Environment variables read by LoadConfiguration.
const (
	EnvWidth         = "FRAMELOOP_WIDTH"
	EnvHeight        = "FRAMELOOP_HEIGHT"
	EnvTitle         = "FRAMELOOP_TITLE"
	EnvFramesPerSec  = "FRAMELOOP_FPS"
	EnvVSync         = "FRAMELOOP_VSYNC"
	EnvValidation    = "FRAMELOOP_VALIDATION"
	EnvPipelineCache = "FRAMELOOP_PIPELINE_CACHE"
)

// LoadConfiguration returns the default configuration overlaid with the
// environment. A .env file in the working directory is honoured.
func LoadConfiguration() (Configuration, error) {
	cfg := DefaultConfiguration()

	var err error
	if cfg.Window.Width, err = envInt(EnvWidth, cfg.Window.Width); err != nil {
		return cfg, err
	}
	if cfg.Window.Height, err = envInt(EnvHeight, cfg.Window.Height); err != nil {
		return cfg, err
	}
	if cfg.Time.FramesPerSecond, err = envInt(EnvFramesPerSec, cfg.Time.FramesPerSecond); err != nil {
		return cfg, err
	}
	if cfg.Renderer.VSync, err = envBool(EnvVSync, cfg.Renderer.VSync); err != nil {
		return cfg, err
	}
	if cfg.Renderer.Validation, err = envBool(EnvValidation, cfg.Renderer.Validation); err != nil {
		return cfg, err
	}
	cfg.Window.Title = envy.Get(EnvTitle, cfg.Window.Title)
	cfg.Renderer.PipelineCache = envy.Get(EnvPipelineCache, cfg.Renderer.PipelineCache)

	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return cfg, errors.Errorf("window size %dx%d is not positive", cfg.Window.Width, cfg.Window.Height)
	}
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, errors.Wrapf(err, "%s", key)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errors.Wrapf(err, "%s", key)
	}
	return b, nil
}
