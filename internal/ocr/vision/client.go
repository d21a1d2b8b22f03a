// Package vision is the remote OCR backend. The crop is PNG-encoded and sent
// unchanged to an OpenAI-compatible vision chat endpoint.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"jp-ocr/internal/ocr"
)

// Name is the backend identifier used in configuration.
const Name = "vision"

const (
	maxRetries   = 3
	initialDelay = 1 * time.Second
	noTextMarker = "NO_TEXT_FOUND"
)

const prompt = "Perform OCR on this image of a Japanese manga speech balloon. " +
	"Return ONLY the raw extracted Japanese text with:\n" +
	"- No formatting\n" +
	"- No romanization or translation\n" +
	"- No markdown\n" +
	"- No explanations\n" +
	"If no text found, return '" + noTextMarker + "'"

// Config describes the endpoint.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	// RetryDelay is the base backoff between attempts. Zero means one second.
	RetryDelay time.Duration
}

type message struct {
	Role    string    `json:"role"`
	Content []content `json:"content"`
}

type content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// Client talks to the vision endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// Load validates the configuration and checks GET /models so an unreachable
// endpoint or a bad key is reported as a load failure rather than on the
// first selection.
func Load(ctx context.Context, cfg Config) (ocr.Engine, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vision base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("vision model is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision API key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = initialDelay
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
	if err := c.checkModels(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Name implements ocr.Engine.
func (c *Client) Name() string { return Name }

// Close implements ocr.Engine.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) checkModels(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model list returned status %d", resp.StatusCode)
	}
	return nil
}

// Recognize implements ocr.Engine.
func (c *Client) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	request := chatRequest{
		Model: c.cfg.Model,
		Messages: []message{{
			Role: "user",
			Content: []content{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		}},
		Temperature: 0.1,
		MaxTokens:   1000,
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.cfg.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			log.Printf("vision: retrying request (attempt %d/%d): %v", attempt+1, maxRetries, lastErr)
		}

		response, err := c.send(ctx, request)
		if err != nil {
			lastErr = err
			continue
		}
		if len(response.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in API response")
			continue
		}
		return cleanText(response.Choices[0].Message.Content), nil
	}
	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) send(ctx context.Context, request chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return &response, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("X-Title", "JP OCR")
}

// cleanText strips the no-text marker and stray whitespace between columns.
func cleanText(text string) string {
	text = strings.TrimSpace(text)
	if text == noTextMarker {
		return ""
	}
	text = strings.TrimSuffix(text, "</image>")
	return strings.Join(strings.Fields(text), "")
}
