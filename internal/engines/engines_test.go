package engines

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"jp-ocr/internal/config"
	"jp-ocr/internal/ocr"
)

func TestNames(t *testing.T) {
	if got := Names(); !reflect.DeepEqual(got, []string{"tesseract", "vision"}) {
		t.Errorf("got %v", got)
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(&config.Config{Engine: "manga-ocr"})
	if err == nil {
		t.Fatal("unknown engine should fail")
	}
	if !strings.Contains(err.Error(), "manga-ocr") {
		t.Errorf("error should name the engine: %v", err)
	}
}

func TestNewLoader_VisionMisconfigured(t *testing.T) {
	l, err := NewLoader(&config.Config{Engine: "vision"})
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	if l.Name() != "vision" {
		t.Errorf("name: got %q", l.Name())
	}

	l.Start(context.Background())
	_, err = l.Wait(context.Background())

	var lerr *ocr.LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if l.State() != ocr.StateFailed {
		t.Errorf("state: got %v", l.State())
	}
}
