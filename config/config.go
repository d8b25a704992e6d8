package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "speaksure.yaml"

// DefaultQuestions are the behavioral questions asked when none are configured.
var DefaultQuestions = []string{
	"Tell me about a time when you had to work under pressure. How did you handle it?",
	"Describe a situation where you had to work with a difficult team member. What was your approach?",
	"Give an example of a goal you set and how you achieved it.",
	"Tell me about a time you made a mistake. How did you handle it?",
	"Describe a situation where you showed leadership skills.",
}

type Config struct {
	API       APIConfig       `yaml:"api"`
	Audio     AudioConfig     `yaml:"audio"`
	Visualize VisualizeConfig `yaml:"visualizer"`
	Questions []string        `yaml:"questions" validate:"min=1,dive,required"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
}

type AudioConfig struct {
	Device         string   `yaml:"device"`
	SampleRate     uint32   `yaml:"sample_rate" validate:"gte=8000,lte=48000"`
	Channels       uint32   `yaml:"channels" validate:"eq=1"`
	Video          bool     `yaml:"video"`
	PreferredTypes []string `yaml:"preferred_types" validate:"min=1,dive,required"`
}

type VisualizeConfig struct {
	FPS int `yaml:"fps" validate:"gte=1,lte=120"`
}

func Default() *Config {
	return &Config{
		API: APIConfig{BaseURL: "http://127.0.0.1:5000"},
		Audio: AudioConfig{
			SampleRate:     16000,
			Channels:       1,
			PreferredTypes: []string{"audio/webm;codecs=opus", "audio/wav"},
		},
		Visualize: VisualizeConfig{FPS: 60},
		Questions: append([]string(nil), DefaultQuestions...),
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// an optional .env file and SPEAKSURE_* environment variables, in that order
// of increasing precedence, and validates the result.
func Load(path string) (*Config, error) {
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SPEAKSURE_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SPEAKSURE_DEVICE"); v != "" {
		cfg.Audio.Device = v
	}
	if v := os.Getenv("SPEAKSURE_SAMPLE_RATE"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("SPEAKSURE_SAMPLE_RATE: %w", err)
		}
		cfg.Audio.SampleRate = uint32(n)
	}
	if v := os.Getenv("SPEAKSURE_VIDEO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SPEAKSURE_VIDEO: %w", err)
		}
		cfg.Audio.Video = b
	}
	if v := os.Getenv("SPEAKSURE_FPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPEAKSURE_FPS: %w", err)
		}
		cfg.Visualize.FPS = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
