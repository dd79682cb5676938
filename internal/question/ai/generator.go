// Package ai calls the external chat-completions endpoint that drafts
// multiple-choice questions from free text.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/synapaxon/question-bank/internal/question"
)

// Config holds connection details for the generation endpoint.
type Config struct {
	EndpointURL string
	APIToken    string
	Timeout     time.Duration
}

// Generator implements question.AIGenerator over an OpenAI-compatible
// chat-completions API.
type Generator struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
	chatURL    string
}

var _ question.AIGenerator = (*Generator)(nil)

func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimSuffix(cfg.EndpointURL, "/")

	return &Generator{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "ai_generator").Logger(),
		chatURL:    base + "/v1/chat/completions",
	}
}

// GenerateFromText requests draft questions for the given source text and
// parses the model output into structured items.
func (g *Generator) GenerateFromText(ctx context.Context, req question.AIGenerateRequest) ([]question.GeneratedQuestion, error) {
	if g.config.EndpointURL == "" {
		return nil, fmt.Errorf("generator endpoint not configured")
	}

	payload := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a question generator."},
			{Role: "user", Content: buildPrompt(req)},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.chatURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.APIToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.APIToken)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("decode generator payload: %w", err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("generator returned no content")
	}

	var items []question.GeneratedQuestion
	content := stripCodeFence(chatResp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		g.logger.Warn().Err(err).Msg("generator returned unparseable content")
		return nil, fmt.Errorf("generator returned an invalid format")
	}

	now := time.Now().UnixMilli()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("q-%d-%d", now, i)
		}
	}
	return items, nil
}

func buildPrompt(req question.AIGenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate multiple-choice questions based on the following text:\n%q.\n", req.Text)
	if req.Instructions != "" {
		fmt.Fprintf(&b, "Additional instructions: %s\n", req.Instructions)
	}
	if req.LiteralMode {
		b.WriteString("Interpret the text literally.")
	} else {
		b.WriteString("Be creative and generate varied questions.")
	}
	b.WriteString("\nOutput format (JSON):\n")
	b.WriteString(`[{
  "questionText": "...",
  "options": ["...", "...", "...", "..."],
  "correctAnswer": 0,
  "explanation": "..."
}]`)
	return b.String()
}

// stripCodeFence unwraps model output wrapped in a markdown code block.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimSuffix(content, "```")
	if idx := strings.Index(content, "\n"); idx >= 0 {
		content = content[idx+1:]
	}
	return strings.TrimSpace(content)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
