// Package reviewer generates short product reviews and spec summaries with the Gemini API.
package reviewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/pcsite/backend/internal/domain"
)

const (
	defaultModel    = "gemini-2.0-flash"
	maxReviewLength = 100
)

// Config holds generation settings
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // overrides the API endpoint, used by tests
	Retry   RetryConfig
}

// Client implements domain.ReviewGenerator
type Client struct {
	genai *genai.Client
	model string
	retry RetryConfig
}

// NewClient creates a Gemini API client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: enrichment api key is required", domain.ErrInvalidRequest)
	}

	config := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  cfg.APIKey,
	}
	if cfg.BaseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{genai: client, model: model, retry: cfg.Retry.withDefaults()}, nil
}

// Generate asks the model for a one-line review and a spec summary of the product
func (c *Client) Generate(ctx context.Context, productName, specHint string) (*domain.Review, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.4),
	}

	var review *domain.Review
	err := retryWithBackoff(ctx, c.retry, func(ctx context.Context) error {
		resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(buildPrompt(productName, specHint)), config)
		if err != nil {
			return err
		}
		parsed, err := parseReview(resp.Text())
		if err != nil {
			return err
		}
		review = parsed
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: review %q: %v", domain.ErrCollaboratorFailure, productName, err)
	}
	return review, nil
}

func buildPrompt(productName, specHint string) string {
	var b strings.Builder
	b.WriteString("You write for a PC parts price comparison site.\n")
	b.WriteString("Product: ")
	b.WriteString(productName)
	b.WriteString("\n")
	if specHint != "" {
		b.WriteString("Specs: ")
		b.WriteString(specHint)
		b.WriteString("\n")
	}
	b.WriteString(`Answer with JSON {"review": string, "specSummary": string}. `)
	b.WriteString("review is one sentence in Korean under 100 characters about who the part suits. ")
	b.WriteString("specSummary lists the key specs in a short line.")
	return b.String()
}

// parseReview decodes the model answer, tolerating a fenced code block
func parseReview(text string) (*domain.Review, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty model response")
	}

	var review domain.Review
	if err := json.Unmarshal([]byte(text), &review); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	review.Review = truncateRunes(strings.TrimSpace(review.Review), maxReviewLength)
	review.SpecSummary = strings.TrimSpace(review.SpecSummary)
	if review.Review == "" {
		return nil, errors.New("model response has no review")
	}
	return &review, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
