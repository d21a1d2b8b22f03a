// Package config reads runtime settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvFile           = "JPOCR_ENV_FILE"
	EnvEngine         = "JPOCR_ENGINE"
	EnvMinSelection   = "JPOCR_MIN_SELECTION"
	EnvThreshold      = "JPOCR_BINARIZE_THRESHOLD"
	EnvTessdataPrefix = "JPOCR_TESSDATA_PREFIX"
	EnvTesseractLangs = "JPOCR_TESSERACT_LANGS"
	EnvVisionURL      = "JPOCR_VISION_URL"
	EnvVisionModel    = "JPOCR_VISION_MODEL"
	EnvVisionAPIKey   = "JPOCR_VISION_API_KEY"
	EnvVisionTimeout  = "JPOCR_VISION_TIMEOUT_SEC"
)

// Defaults.
const (
	DefaultEngine         = "tesseract"
	DefaultMinSelection   = 5
	DefaultThreshold      = 190
	DefaultTesseractLangs = "jpn_vert,jpn"
	DefaultVisionURL      = "https://openrouter.ai/api/v1"
	DefaultVisionTimeout  = 45 * time.Second
)

// Config holds every runtime setting.
type Config struct {
	// Engine is the backend identifier. It is not validated here; the
	// engines package rejects unknown names.
	Engine       string
	MinSelection int
	Threshold    uint8

	TessdataPrefix string
	TesseractLangs []string

	VisionURL     string
	VisionModel   string
	VisionAPIKey  string
	VisionTimeout time.Duration

	// EnvPath is the .env file that was read, if any.
	EnvPath string
}

// Load resolves the .env path and reads the configuration.
//
// The file named by JPOCR_ENV_FILE is used when it exists, otherwise the .env
// next to the executable. Process environment always wins over the file.
func Load() (*Config, error) {
	return LoadFile(resolveEnvPath())
}

// LoadFile reads the configuration using envPath as the .env file. An empty
// path means environment only.
func LoadFile(envPath string) (*Config, error) {
	values := map[string]string{}
	if envPath != "" {
		v, err := godotenv.Read(envPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
		}
		values = v
	}

	get := func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if v := strings.TrimSpace(values[key]); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Engine:         strings.ToLower(get(EnvEngine, DefaultEngine)),
		TessdataPrefix: get(EnvTessdataPrefix, ""),
		TesseractLangs: splitList(get(EnvTesseractLangs, DefaultTesseractLangs)),
		VisionURL:      get(EnvVisionURL, DefaultVisionURL),
		VisionModel:    get(EnvVisionModel, ""),
		VisionAPIKey:   get(EnvVisionAPIKey, ""),
		EnvPath:        envPath,
	}

	minSel, err := strconv.Atoi(get(EnvMinSelection, strconv.Itoa(DefaultMinSelection)))
	if err != nil || minSel < 1 {
		return nil, fmt.Errorf("%s must be a positive integer", EnvMinSelection)
	}
	cfg.MinSelection = minSel

	threshold, err := strconv.Atoi(get(EnvThreshold, strconv.Itoa(DefaultThreshold)))
	if err != nil || threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("%s must be between 0 and 255", EnvThreshold)
	}
	cfg.Threshold = uint8(threshold)

	timeout, err := strconv.Atoi(get(EnvVisionTimeout, strconv.Itoa(int(DefaultVisionTimeout/time.Second))))
	if err != nil || timeout < 1 {
		return nil, fmt.Errorf("%s must be a positive number of seconds", EnvVisionTimeout)
	}
	cfg.VisionTimeout = time.Duration(timeout) * time.Second

	if len(cfg.TesseractLangs) == 0 {
		return nil, fmt.Errorf("%s must name at least one language", EnvTesseractLangs)
	}

	return cfg, nil
}

func resolveEnvPath() string {
	if alt := os.Getenv(EnvFile); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
