package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/JBRUL255/funny-video-generator/models"
)

const chatCompletionsURL = "https://api.openai.com/v1/chat/completions"

const scriptPrompt = `Write a funny, short (40-60s) American-style joke script for a vertical short video.
Respond with ONLY valid JSON, no preamble, no markdown:
{"hook": "...", "setup": "...", "punchline": "...", "captions": [{"text": "...", "start_sec": 0, "end_sec": 3}]}
Topic: %s`

type scriptClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	logger     *logrus.Entry
}

func newScriptClient(httpClient *http.Client, apiKey, model string, logger *logrus.Entry) *scriptClient {
	return &scriptClient{httpClient: httpClient, apiKey: apiKey, model: model, baseURL: chatCompletionsURL, logger: logger}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate asks the chat completions endpoint for a joke script. When the
// model answers with something that is not the requested JSON, the raw text
// still becomes a usable script with the topic as hook and no captions.
func (c *scriptClient) Generate(ctx context.Context, topic string) (*models.Script, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("script generation unavailable: OPENAI_API_KEY not set")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(scriptPrompt, topic)},
		},
		Temperature: 0.9,
		MaxTokens:   300,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completions request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nil, fmt.Errorf("decode chat completions response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("chat completions: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat completions returned no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	content = stripCodeFence(content)

	var script models.Script
	if err := json.Unmarshal([]byte(content), &script); err != nil {
		c.logger.WithField("topic", topic).Warn("model did not return script JSON, using raw text")
		return &models.Script{Hook: topic, Setup: content}, nil
	}
	return &script, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
