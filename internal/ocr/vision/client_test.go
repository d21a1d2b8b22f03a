package vision

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeServer answers /models and /chat/completions. The first failures
// chat requests get a 500.
func fakeServer(t *testing.T, reply string, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var chats atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/models":
			w.Write([]byte(`{"data":[]}`))
		case "/chat/completions":
			n := chats.Add(1)
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 ||
				!strings.HasPrefix(req.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,") {
				t.Errorf("unexpected request shape: %+v", req)
			}
			if n <= failures {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":{"message":"overloaded","type":"server"}}`))
				return
			}
			resp := map[string]any{
				"choices": []map[string]any{{"message": map[string]string{"content": reply}}},
			}
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &chats
}

func testConfig(url string) Config {
	return Config{
		BaseURL:    url + "/",
		Model:      "test-model",
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		RetryDelay: time.Millisecond,
	}
}

func crop() image.Image {
	return image.NewGray(image.Rect(0, 0, 8, 8))
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no url", Config{Model: "m", APIKey: "k"}},
		{"no model", Config{BaseURL: "http://x", APIKey: "k"}},
		{"no key", Config{BaseURL: "http://x", Model: "m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(context.Background(), tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_ModelsCheckRejected(t *testing.T) {
	srv, _ := fakeServer(t, "", 0)
	cfg := testConfig(srv.URL)
	cfg.APIKey = "wrong"
	if _, err := Load(context.Background(), cfg); err == nil {
		t.Error("Load with a rejected key should fail")
	}
}

func TestRecognize(t *testing.T) {
	srv, chats := fakeServer(t, "そうか\nわかった", 0)
	engine, err := Load(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer engine.Close()

	text, err := engine.Recognize(context.Background(), crop())
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "そうかわかった" {
		t.Errorf("text: got %q", text)
	}
	if chats.Load() != 1 {
		t.Errorf("chat requests: got %d, want 1", chats.Load())
	}
}

func TestRecognize_Retries(t *testing.T) {
	srv, chats := fakeServer(t, "ドン", 2)
	engine, err := Load(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	text, err := engine.Recognize(context.Background(), crop())
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "ドン" || chats.Load() != 3 {
		t.Errorf("got %q after %d requests", text, chats.Load())
	}
}

func TestRecognize_GivesUp(t *testing.T) {
	srv, chats := fakeServer(t, "ドン", 10)
	engine, err := Load(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := engine.Recognize(context.Background(), crop()); err == nil {
		t.Error("expected failure after retries")
	}
	if chats.Load() != maxRetries {
		t.Errorf("chat requests: got %d, want %d", chats.Load(), maxRetries)
	}
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"NO_TEXT_FOUND":       "",
		"  ええ？ \n":            "ええ？",
		"あ\nい</image>":        "あい",
		"":                    "",
		"ちょっと 待って":           "ちょっと待って",
	}
	for in, want := range tests {
		if got := cleanText(in); got != want {
			t.Errorf("cleanText(%q) = %q, want %q", in, got, want)
		}
	}
}
