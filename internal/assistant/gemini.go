package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"fellowship/internal/models"
)

const (
	defaultRetries    = 1
	defaultRetryDelay = time.Second
)

// generateFunc sends one prompt and returns the text of the first candidate
type generateFunc func(ctx context.Context, prompt string, schema *genai.Schema) (string, error)

// GeminiClient generates text with the Gemini API
type GeminiClient struct {
	model      string
	generate   generateFunc
	retryDelay time.Duration
	debug      bool
}

var _ Assistant = (*GeminiClient)(nil)

// New returns a Gemini-backed assistant, or Disabled when apiKey is empty
func New(ctx context.Context, apiKey, model string, debug bool) (Assistant, error) {
	if apiKey == "" {
		log.Println("Assistant disabled: GEMINI_API_KEY not configured")
		return Disabled{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	log.Printf("Assistant enabled: model=%s", model)
	g := &GeminiClient{model: model, retryDelay: defaultRetryDelay, debug: debug}
	g.generate = func(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
		var cfg *genai.GenerateContentConfig
		if schema != nil {
			cfg = &genai.GenerateContentConfig{
				ResponseMIMEType: "application/json",
				ResponseSchema:   schema,
			}
		}
		result, err := client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
		if err != nil {
			return "", err
		}
		return firstText(result)
	}
	return g, nil
}

func firstText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	content := result.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (g *GeminiClient) Enabled() bool { return true }

func (g *GeminiClient) call(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if g.debug {
		log.Printf("[DEBUG] Assistant prompt: %s", prompt)
	}
	text, err := Retry(ctx, defaultRetries, g.retryDelay, func() (string, error) {
		return g.generate(ctx, prompt, schema)
	})
	if err != nil {
		if IsQuotaError(err) {
			log.Printf("Assistant quota exhausted: %v", err)
		}
		return "", err
	}
	if g.debug {
		log.Printf("[DEBUG] Assistant response: %s", text)
	}
	return text, nil
}

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func objectSchema(fields ...string) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	for _, f := range fields {
		props[f] = stringSchema()
	}
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: fields}
}

func arraySchema(item *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: item}
}

// VerseOfDay asks for an inspiring Bible verse
func (g *GeminiClient) VerseOfDay(ctx context.Context) (models.Verse, error) {
	text, err := g.call(ctx, "Give me an inspiring Bible verse for a church community app. Return JSON.",
		objectSchema("verse", "reference"))
	if err != nil {
		return models.Verse{}, err
	}

	var verse models.Verse
	if err := json.Unmarshal([]byte(cleanJSON(text)), &verse); err != nil {
		return models.Verse{}, fmt.Errorf("failed to decode verse: %w", err)
	}
	if strings.TrimSpace(verse.Verse) == "" {
		return models.Verse{}, ErrEmptyResponse
	}
	return verse, nil
}

// SermonIdeas generates n fictional sermons
func (g *GeminiClient) SermonIdeas(ctx context.Context, n int) ([]SermonIdea, error) {
	prompt := fmt.Sprintf("Generate %d fictional Christian sermon titles, speakers, dates, and descriptions.", n)
	text, err := g.call(ctx, prompt, arraySchema(objectSchema("title", "speaker", "date", "description")))
	if err != nil {
		return nil, err
	}

	var ideas []SermonIdea
	if err := json.Unmarshal([]byte(cleanJSON(text)), &ideas); err != nil {
		return nil, fmt.Errorf("failed to decode sermons: %w", err)
	}
	base := time.Now().UTC()
	for i := range ideas {
		if t, ok := parseDate(ideas[i].RawDate); ok {
			ideas[i].Date = t
		} else {
			ideas[i].Date = base.AddDate(0, 0, -7*(i+1))
		}
	}
	return truncate(ideas, n), nil
}

// EventIdeas generates n fictional upcoming events
func (g *GeminiClient) EventIdeas(ctx context.Context, n int) ([]EventIdea, error) {
	prompt := fmt.Sprintf("Generate %d fictional upcoming church events.", n)
	text, err := g.call(ctx, prompt, arraySchema(objectSchema("title", "date", "location", "description")))
	if err != nil {
		return nil, err
	}

	var ideas []EventIdea
	if err := json.Unmarshal([]byte(cleanJSON(text)), &ideas); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	base := time.Now().UTC()
	for i := range ideas {
		if t, ok := parseDate(ideas[i].RawDate); ok {
			ideas[i].Date = t
		} else {
			ideas[i].Date = base.AddDate(0, 0, 7*(i+1))
		}
	}
	return truncate(ideas, n), nil
}

// PrayerResponse writes a short encouraging reply to a prayer request
func (g *GeminiClient) PrayerResponse(ctx context.Context, request string) (string, error) {
	prompt := fmt.Sprintf("Write a short, encouraging, faith-based response (max %d words) to: %q",
		MaxPrayerReplyWords, request)
	text, err := g.call(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return limitWords(text, MaxPrayerReplyWords), nil
}

func truncate[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
