package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/timeline"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.FPS)
	assert.Equal(t, "1080x1920", cfg.Resolution)
	assert.Equal(t, "9/16", cfg.Aspect)
	assert.Equal(t, "Pretendard-Bold", cfg.Settings.FontFamily)
	assert.Equal(t, timeline.TransitionFade, cfg.Settings.TransitionTemplate)
	assert.Equal(t, geometry.FitCover, cfg.Defaults().Fit)
}

func TestLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aspect: "16/9"
fps: 24
settings:
  color: "#ff0000"
  transition_template: slide-left
`), 0644))

	t.Setenv("STORYBOARD_FPS", "60")
	t.Setenv("STORYBOARD_SETTINGS_POSITION", "bottom")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "16/9", cfg.Aspect)
	assert.Equal(t, 60, cfg.FPS, "env wins over file")
	assert.Equal(t, "#ff0000", cfg.Settings.Color)
	assert.Equal(t, timeline.CaptionBottom, cfg.Settings.Position)
	assert.Equal(t, timeline.TransitionSlideLeft, cfg.Defaults().Transition)
	assert.Equal(t, 32.0, cfg.Settings.FontSizePx, "untouched defaults survive")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Aspect = "wide"
	cfg.FPS = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, geometry.ErrInvalidAspect)
	assert.Contains(t, err.Error(), "fps")
}

func TestGetLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"warning": slog.LevelWarn,
		"DEBUG":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := &Config{LogLevel: in}
		assert.Equal(t, want, cfg.GetLogLevel().Level(), in)
	}
}
