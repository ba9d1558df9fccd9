package ai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"scraperpro/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseUrl = "https://api.deepseek.com/v1"
	defaultModel   = "deepseek-chat"
)

type Config struct {
	// read from DEEPSEEK_API_KEY when empty
	ApiKey         string `json:"api_key"`
	BaseUrl        string `json:"base_url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Id      string `json:"id"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Client talks to the DeepSeek chat completion API.
type Client struct {
	http  *resty.Client
	model string
}

func NewClient(config Config) (*Client, error) {
	apiKey := config.ApiKey
	if apiKey == "" {
		apiKey = os.Getenv("DEEPSEEK_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no api key configured and DEEPSEEK_API_KEY is not set")
	}

	baseUrl := config.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	timeout := config.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}

	client := resty.New().
		SetBaseURL(baseUrl).
		SetAuthToken(apiKey).
		SetTimeout(time.Duration(timeout) * time.Second)
	telemetry.InstrumentResty(client, "ai/deepseek")

	return &Client{http: client, model: model}, nil
}

// Completion sends the conversation and returns the first choice's
// content.
func (c *Client) Completion(ctx context.Context, messages []Message) (string, error) {
	var response completionResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: 0.7,
			MaxTokens:   4000,
		}).
		SetResult(&response).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("deepseek api error (%s): %s", res.Status(), res.String())
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("deepseek returned no choices")
	}

	slog.Debug("deepseek response received",
		"prompt_tokens", response.Usage.PromptTokens,
		"completion_tokens", response.Usage.CompletionTokens,
	)
	return response.Choices[0].Message.Content, nil
}

func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	return c.Completion(ctx, []Message{{Role: "user", Content: prompt}})
}

func (c *Client) AskWithSystem(ctx context.Context, system, user string) (string, error) {
	return c.Completion(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
}

// TestConnection does a round trip so misconfigured keys fail fast
// instead of mid-cycle.
func (c *Client) TestConnection(ctx context.Context) error {
	response, err := c.Ask(ctx, "Respond with 'OK' if you receive this message.")
	if err != nil {
		return err
	}
	slog.Info("deepseek connection test successful", "response", strings.TrimSpace(response))
	return nil
}
