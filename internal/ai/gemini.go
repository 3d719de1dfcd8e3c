package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/patterneng/internal/config"
)

// MaxHistory is how many previous turns are forwarded to the model.
const MaxHistory = 20

var (
	ErrNotConfigured = errors.New("chat model not configured")
	ErrNoReply       = errors.New("no response")
)

// SystemPrompt makes the model answer like a casual, terse tutor.
const SystemPrompt = `넌 영어를 가르치는 친한 친구야. 이름은 "콩쌤".

규칙:
- 반말로 짧게 답해 (1-2문장)
- 핵심만 딱 말해, 설명 길게 X
- "그냥 외워", "이건 걍 공식임" 이런 식으로 직설적으로
- 필요하면 예문 1개만

예시:
Q: 왜 I'm going to 써?
A: 그냥 외워ㅋ "I'm going to + 동사원형" = ~할 거야. 예: I'm going to eat. (먹을 거야)

Q: would랑 could 차이?
A: would는 "~할 텐데", could는 "~할 수 있을 텐데". would가 더 확실한 느낌!

절대 길게 설명하지 마. 친구한테 카톡하듯이 짧게!`

// Turn is one message of a conversation as sent by the client.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Gemini is a client for the Generative Language generateContent API
type Gemini struct {
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewGemini creates a new chat client
func NewGemini(cfg config.Chat) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	return &Gemini{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// GenerateRequest is the body of a generateContent call
type GenerateRequest struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

// GenerateResponse is the part of a generateContent response we read
type GenerateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// BuildRequest converts a message and its history into a request body.
func (g *Gemini) BuildRequest(message string, history []Turn) GenerateRequest {
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}

	contents := make([]content, 0, len(history)+1)
	for _, h := range history {
		role := "model"
		if h.Role == "user" {
			role = "user"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: h.Text}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})

	return GenerateRequest{
		SystemInstruction: content{Parts: []part{{Text: SystemPrompt}}},
		Contents:          contents,
		GenerationConfig: generationConfig{
			MaxOutputTokens: g.maxTokens,
			Temperature:     g.temperature,
		},
	}
}

// Reply asks the model to answer a learner's message
func (g *Gemini) Reply(ctx context.Context, message string, history []Turn) (string, error) {
	requestData, err := json.Marshal(g.BuildRequest(message, history))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error: status %d", resp.StatusCode)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoReply
	}

	return strings.TrimSpace(response.Candidates[0].Content.Parts[0].Text), nil
}
