package vision

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/genai"
)

// Request is one image plus the instruction sent to a remote inferencer.
type Request struct {
	Image    []byte
	MIMEType string
	Prompt   string
}

// Inferencer is a remote model that returns unvalidated tags for an image.
type Inferencer interface {
	Infer(ctx context.Context, req Request) (RawTags, error)
}

// GeminiInferencer calls the Gemini API with a JSON response schema.
type GeminiInferencer struct {
	client *genai.Client
	model  string
}

// NewGeminiInferencer creates a Gemini client. httpClient may be nil.
func NewGeminiInferencer(ctx context.Context, apiKey, model string, httpClient *http.Client) (*GeminiInferencer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiInferencer{client: client, model: model}, nil
}

// Infer sends the image and prompt and parses the returned JSON object.
// Output that holds no JSON object yields empty tags rather than an error,
// so every field is later coerced to Other.
func (g *GeminiInferencer) Infer(ctx context.Context, req Request) (RawTags, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Image, req.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := result.Text()
	raw, ok := ParseRawTags(text)
	if !ok {
		log.Printf("vision: could not parse JSON from model response %q", text)
		return RawTags{}, nil
	}
	return raw, nil
}

func responseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(EnumCategories)+1)
	required := make([]string, 0, len(EnumCategories)+1)
	for _, c := range EnumCategories {
		props[string(c)] = &genai.Schema{Type: genai.TypeString, Enum: Values(c)}
		required = append(required, string(c))
	}
	props[string(CategoryFaceVisible)] = &genai.Schema{
		Type:        genai.TypeBoolean,
		Description: "whether the face is clearly visible",
	}
	required = append(required, string(CategoryFaceVisible))
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}
