package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"go-disaster-watch/internal/models"
)

const systemPrompt = `You are a disaster analysis assistant. Given an incident report,
respond with a single JSON object and nothing else:
{
  "type": "Earthquake|Flood|Wildfire|Hurricane|Tornado|Landslide|Unknown",
  "severity": number (1-10),
  "impact_radius": number (miles, > 0),
  "summary": "one-paragraph situation summary",
  "keywords": ["lowercase", "keywords"],
  "place_of_impact": "most specific named place",
  "neighborhood": "neighborhood or district if known",
  "incident_name": "short human-readable name"
}`

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAIAnalyzer implements Analyzer against the OpenAI chat completions API.
type OpenAIAnalyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIAnalyzer(cfg Config) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIAnalyzer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}, nil
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, incident *models.Incident) (*Result, error) {
	prompt := fmt.Sprintf(
		"Incident report:\nTitle: %s\nDescription: %s\nReported type: %s\nLocation: %.5f, %.5f",
		incident.Title, incident.Description, incident.Type, incident.Latitude, incident.Longitude)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	return ParseResult(resp.Choices[0].Message.Content)
}

// ParseResult decodes a model response into a Result, tolerating code
// fences and clamping numeric fields onto their valid ranges.
func ParseResult(content string) (*Result, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw struct {
		Type          string   `json:"type"`
		Severity      float64  `json:"severity"`
		ImpactRadius  float64  `json:"impact_radius"`
		Summary       string   `json:"summary"`
		Keywords      []string `json:"keywords"`
		PlaceOfImpact string   `json:"place_of_impact"`
		Neighborhood  string   `json:"neighborhood"`
		IncidentName  string   `json:"incident_name"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decoding analysis response: %w", err)
	}

	severity := raw.Severity
	if severity < models.MinSeverity {
		severity = models.MinSeverity
	}
	if severity > models.MaxSeverity {
		severity = models.MaxSeverity
	}

	radius := raw.ImpactRadius
	if radius <= 0 {
		radius = 1
	}

	place := raw.PlaceOfImpact
	if place == "" {
		place = "Unknown Location"
	}

	return &Result{
		Type:          models.ParseIncidentType(raw.Type),
		Severity:      severity,
		ImpactRadius:  radius,
		Summary:       raw.Summary,
		Keywords:      raw.Keywords,
		PlaceOfImpact: place,
		Neighborhood:  raw.Neighborhood,
		IncidentName:  raw.IncidentName,
	}, nil
}
