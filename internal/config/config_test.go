package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every key so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvEngine, EnvMinSelection, EnvThreshold, EnvTessdataPrefix, EnvTesseractLangs,
		EnvVisionURL, EnvVisionModel, EnvVisionAPIKey, EnvVisionTimeout,
	} {
		t.Setenv(k, "")
	}
}

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Engine != DefaultEngine {
		t.Errorf("Engine: got %q", cfg.Engine)
	}
	if cfg.MinSelection != 5 || cfg.Threshold != 190 {
		t.Errorf("MinSelection/Threshold: got %d/%d", cfg.MinSelection, cfg.Threshold)
	}
	if !reflect.DeepEqual(cfg.TesseractLangs, []string{"jpn_vert", "jpn"}) {
		t.Errorf("TesseractLangs: got %v", cfg.TesseractLangs)
	}
	if cfg.VisionURL != DefaultVisionURL || cfg.VisionTimeout != 45*time.Second {
		t.Errorf("vision defaults: got %q %v", cfg.VisionURL, cfg.VisionTimeout)
	}
}

func TestLoadFile_DotenvAndOverride(t *testing.T) {
	clearEnv(t)
	path := writeEnv(t, "JPOCR_ENGINE=Vision\nJPOCR_VISION_MODEL=file-model\nJPOCR_MIN_SELECTION=8\n")
	t.Setenv(EnvVisionModel, "env-model")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Engine != "vision" {
		t.Errorf("Engine: got %q, want vision", cfg.Engine)
	}
	if cfg.VisionModel != "env-model" {
		t.Errorf("process env should win, got %q", cfg.VisionModel)
	}
	if cfg.MinSelection != 8 {
		t.Errorf("MinSelection: got %d", cfg.MinSelection)
	}
	if cfg.EnvPath != path {
		t.Errorf("EnvPath: got %q", cfg.EnvPath)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvMinSelection, "0"},
		{EnvMinSelection, "five"},
		{EnvThreshold, "256"},
		{EnvThreshold, "-1"},
		{EnvVisionTimeout, "0"},
		{EnvTesseractLangs, " , "},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFile(""); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("missing env file should fail")
	}
}

func TestLoad_EnvFileVariableWins(t *testing.T) {
	clearEnv(t)
	path := writeEnv(t, "JPOCR_MIN_SELECTION=9\n")
	t.Setenv(EnvFile, path)

	if got := resolveEnvPath(); got != path {
		t.Fatalf("resolveEnvPath: got %q, want %q", got, path)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EnvPath != path || cfg.MinSelection != 9 {
		t.Errorf("got path %q min %d", cfg.EnvPath, cfg.MinSelection)
	}
}

func TestLoad_EnvFileVariableMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvFile, filepath.Join(t.TempDir(), "absent.env"))

	if got := resolveEnvPath(); strings.HasSuffix(got, "absent.env") {
		t.Errorf("missing file was selected: %q", got)
	}
}
