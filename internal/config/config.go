package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/borderflow/internal/domain"
	"github.com/dunamismax/borderflow/internal/storage"
	"github.com/dunamismax/borderflow/internal/telemetry"
	"github.com/dunamismax/borderflow/internal/webhook"
)

type Config struct {
	Paths   PathsConfig
	Border  domain.BorderSpec
	Metrics MetricsConfig
	Tracing telemetry.TraceConfig
	Mirror  MirrorConfig
	Webhook webhook.Config
}

type PathsConfig struct {
	BaseDir     string
	InputDir    string
	OutputDir   string
	Suffix      string
	ForceJPGExt bool
}

type MetricsConfig struct {
	TextfilePath string
}

type MirrorConfig struct {
	Storage storage.Config
	Prefix  string
}

// Enabled reports whether outputs should be copied to object storage.
func (m MirrorConfig) Enabled() bool {
	return strings.TrimSpace(m.Storage.Bucket) != ""
}

// Load reads the environment. Border settings that do not parse are
// returned as errors, since the run cannot start without them.
func Load() (Config, error) {
	baseDir := env("BORDERFLOW_BASE_DIR", "")
	if baseDir == "" {
		dir, err := executableDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve program location: %w", err)
		}
		baseDir = dir
	}

	border, err := loadBorder()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Paths: PathsConfig{
			BaseDir:     baseDir,
			InputDir:    resolve(baseDir, env("BORDERFLOW_INPUT_DIR", "Input")),
			OutputDir:   resolve(baseDir, env("BORDERFLOW_OUTPUT_DIR", "Done")),
			Suffix:      env("BORDERFLOW_SUFFIX", domain.DefaultOutputSuffix),
			ForceJPGExt: envBool("BORDERFLOW_FORCE_JPG_EXT", false),
		},
		Border: border,
		Metrics: MetricsConfig{
			TextfilePath: env("BORDERFLOW_METRICS_TEXTFILE", ""),
		},
		Tracing: telemetry.TraceConfig{
			ServiceName:  env("OTEL_SERVICE_NAME", "borderflow"),
			Exporter:     env("OTEL_TRACES_EXPORTER", telemetry.ExporterNone),
			OTLPEndpoint: env("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
		Mirror: MirrorConfig{
			Storage: storage.Config{
				Endpoint: env("MINIO_ENDPOINT", "localhost:9000"),
				Access:   env("MINIO_ACCESS_KEY", "minioadmin"),
				Secret:   env("MINIO_SECRET_KEY", "minioadmin"),
				Bucket:   env("MINIO_BUCKET", ""),
				UseSSL:   envBool("MINIO_USE_SSL", false),
			},
			Prefix: env("BORDERFLOW_MIRROR_PREFIX", "borderflow"),
		},
		Webhook: webhook.Config{
			URL:            env("BORDERFLOW_WEBHOOK_URL", ""),
			SigningSecret:  env("BORDERFLOW_WEBHOOK_SECRET", ""),
			Timeout:        envDuration("BORDERFLOW_WEBHOOK_TIMEOUT", 10*time.Second),
			MaxAttempts:    envInt("BORDERFLOW_WEBHOOK_MAX_ATTEMPTS", 3),
			InitialBackoff: time.Second,
			MaxBackoff:     8 * time.Second,
		},
	}, nil
}

func loadBorder() (domain.BorderSpec, error) {
	spec := domain.DefaultBorderSpec()

	aspect, err := domain.ParseAspectRatio(env("BORDERFLOW_ASPECT_RATIO", domain.DefaultAspectRatio))
	if err != nil {
		return domain.BorderSpec{}, fmt.Errorf("BORDERFLOW_ASPECT_RATIO: %w", err)
	}
	spec.Aspect = aspect

	if raw := env("BORDERFLOW_BORDER_COLOR", ""); raw != "" {
		c, err := domain.ParseColor(raw)
		if err != nil {
			return domain.BorderSpec{}, fmt.Errorf("BORDERFLOW_BORDER_COLOR: %w", err)
		}
		spec.Color = c
	}

	if spec.Width, err = strictInt("BORDERFLOW_BORDER_WIDTH", spec.Width); err != nil {
		return domain.BorderSpec{}, err
	}
	if spec.OutputWidth, err = strictInt("BORDERFLOW_OUTPUT_WIDTH", spec.OutputWidth); err != nil {
		return domain.BorderSpec{}, err
	}
	if spec.Quality, err = strictInt("BORDERFLOW_JPEG_QUALITY", spec.Quality); err != nil {
		return domain.BorderSpec{}, err
	}

	if err := spec.Validate(); err != nil {
		return domain.BorderSpec{}, err
	}
	return spec, nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// strictInt is envInt for settings where a typo must not fall back silently.
func strictInt(key string, fallback int) (int, error) {
	value := env(key, "")
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return parsed, nil
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
