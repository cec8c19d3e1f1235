package enhance

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/salmonumbrella/braindump/internal/record"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// contentGenerator is the slice of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini enhances text with a Gemini model.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini creates a Gemini enhancer.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Gemini{models: client.Models, model: model}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string {
	return g.model
}

// Enhance asks the model for a JSON categorization of text.
func (g *Gemini) Enhance(ctx context.Context, text string) (*record.Enhancement, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(Prompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(text), config)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if resp == nil {
		return nil, errors.New("gemini returned no response")
	}

	reply := resp.Text()
	if reply == "" {
		return nil, errors.New("gemini returned an empty reply")
	}
	return Decode(reply)
}
