package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/patterneng/internal/config"
)

var ErrNotConfigured = errors.New("TTS API key not configured")

// APIError is an error reported by the speech API.
type APIError struct {
	StatusCode int
	Status     string // e.g. RESOURCE_EXHAUSTED
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsRateLimited reports whether err is an upstream quota rejection.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
}

type Voice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	SSMLGender   string `json:"ssmlGender"`
}

// VoiceFor picks the voice for a language; anything but "ko" reads english.
func VoiceFor(lang string) Voice {
	if lang == "ko" {
		return Voice{LanguageCode: "ko-KR", Name: "ko-KR-Wavenet-A", SSMLGender: "FEMALE"}
	}
	return Voice{LanguageCode: "en-US", Name: "en-US-Wavenet-D", SSMLGender: "MALE"}
}

type audioConfig struct {
	AudioEncoding string  `json:"audioEncoding"`
	SpeakingRate  float64 `json:"speakingRate"`
	Pitch         float64 `json:"pitch"`
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice       Voice       `json:"voice"`
	AudioConfig audioConfig `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// GoogleClient calls the Cloud Text-to-Speech REST API.
type GoogleClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGoogleClient(cfg config.TTS) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	return &GoogleClient{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Synthesize returns base64 encoded MP3 audio for text.
func (c *GoogleClient) Synthesize(ctx context.Context, text, lang string) (string, error) {
	var body synthesizeRequest
	body.Input.Text = text
	body.Voice = VoiceFor(lang)
	body.AudioConfig = audioConfig{AudioEncoding: "MP3", SpeakingRate: 0.9, Pitch: 0}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.baseURL + "/v1/text:synthesize?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var out synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	if out.Error != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Status: out.Error.Status, Message: out.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if out.AudioContent == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "empty audio content"}
	}

	return out.AudioContent, nil
}
