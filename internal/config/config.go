package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/storyboard/internal/geometry"
	"github.com/ivlev/storyboard/internal/timeline"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "STORYBOARD_"

type Config struct {
	Aspect     string                  `yaml:"aspect" env:"ASPECT"`
	BaseSize   float64                 `yaml:"base_size" env:"BASE_SIZE"`
	FPS        int                     `yaml:"fps" env:"FPS"`
	Resolution string                  `yaml:"resolution" env:"RESOLUTION"`
	Policy     timeline.BoundaryPolicy `yaml:"boundary_policy" env:"BOUNDARY_POLICY"`
	Workers    int                     `yaml:"workers" env:"WORKERS"`
	LogLevel   string                  `yaml:"log_level" env:"LOG_LEVEL"`

	AssetRoot string `yaml:"asset_root" env:"ASSET_ROOT"`
	PDFDPI    int    `yaml:"pdf_dpi" env:"PDF_DPI"`

	RenderEndpoint string `yaml:"render_endpoint" env:"RENDER_ENDPOINT"`
	StatusURL      string `yaml:"status_url" env:"STATUS_URL"`
	S3Bucket       string `yaml:"s3_bucket" env:"S3_BUCKET"`
	AWSProfile     string `yaml:"aws_profile" env:"AWS_PROFILE"`
	AWSRegion      string `yaml:"aws_region" env:"AWS_REGION"`

	Listen string `yaml:"listen" env:"LISTEN"`

	Settings GlobalSettings `yaml:"settings" envPrefix:"SETTINGS_"`

	ShowStats    bool   `yaml:"-"`
	BuildVersion string `yaml:"-"`
}

// GlobalSettings are the wizard-wide style choices. They travel with the
// export payload and seed caption style and transition for new scenes.
type GlobalSettings struct {
	FontFamily         string                   `json:"font" yaml:"font" env:"FONT"`
	FontSizePx         float64                  `json:"fontSize" yaml:"font_size" env:"FONT_SIZE"`
	Color              string                   `json:"color" yaml:"color" env:"COLOR"`
	Position           timeline.CaptionPosition `json:"position" yaml:"position" env:"POSITION"`
	ImageFit           geometry.Fit             `json:"imageFit" yaml:"image_fit" env:"IMAGE_FIT"`
	TransitionTemplate timeline.TransitionKind  `json:"transitionTemplate" yaml:"transition_template" env:"TRANSITION_TEMPLATE"`
	TransitionDuration float64                  `json:"transitionDuration" yaml:"transition_duration" env:"TRANSITION_DURATION"`
	BGMTemplate        string                   `json:"bgmTemplate,omitempty" yaml:"bgm_template" env:"BGM_TEMPLATE"`
	VoiceTemplate      string                   `json:"voiceTemplate,omitempty" yaml:"voice_template" env:"VOICE_TEMPLATE"`
}

func Default() *Config {
	d := timeline.DefaultDefaults()
	return &Config{
		Aspect:     "9/16",
		BaseSize:   geometry.DefaultBaseSize,
		FPS:        d.FPS,
		Resolution: d.Resolution,
		Policy:     d.Policy,
		Workers:    4,
		LogLevel:   "info",
		PDFDPI:     150,
		Listen:     ":8080",
		Settings: GlobalSettings{
			FontFamily:         d.FontFamily,
			FontSizePx:         d.FontSizePx,
			Color:              d.Color,
			Position:           d.Position,
			ImageFit:           d.Fit,
			TransitionTemplate: d.Transition,
			TransitionDuration: d.TransitionDuration,
		},
	}
}

// Load layers a YAML settings file (optional) and the environment over the
// defaults. Flags are applied by the caller afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ParseEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse settings %s: %w", path, err)
	}
	return nil
}

func (c *Config) ParseEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := geometry.ParseAspect(c.Aspect); err != nil {
		errs = append(errs, err)
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", c.FPS))
	}
	if c.BaseSize <= 0 {
		errs = append(errs, fmt.Errorf("base size must be positive, got %g", c.BaseSize))
	}
	if c.Policy != timeline.TrailingWindow && c.Policy != timeline.BetweenScenes {
		errs = append(errs, fmt.Errorf("unknown boundary policy %q", c.Policy))
	}
	return errors.Join(errs...)
}

// Defaults converts the config into timeline rebuild defaults
func (c *Config) Defaults() timeline.Defaults {
	s := c.Settings
	return timeline.Defaults{
		FPS:                c.FPS,
		Resolution:         c.Resolution,
		Policy:             c.Policy,
		Transition:         s.TransitionTemplate,
		TransitionDuration: s.TransitionDuration,
		Fit:                s.ImageFit,
		FontFamily:         s.FontFamily,
		FontSizePx:         s.FontSizePx,
		Color:              s.Color,
		Position:           s.Position,
	}
}

func (c *Config) GetLogLevel() slog.Leveler {
	switch strings.ToLower(c.LogLevel) {
	case "error":
		return slog.LevelError
	case "warning", "warn":
		return slog.LevelWarn
	case "info", "":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	}
	slog.Info("Received invalid log level. Defaulting to INFO.", "log_level", c.LogLevel)
	return slog.LevelInfo
}
