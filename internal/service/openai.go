package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"hybridsearch/internal/config"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient handles OpenAI-compatible API interactions. It serves as both
// the intent extractor and the query embedder.
type OpenAIClient struct {
	client     *openai.Client
	config     config.OpenAIConfig
	vocabulary []string
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg config.OpenAIConfig, vocabulary []string) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.APIBase, "/")
		log.Printf("🔧 Using OpenAI-compatible endpoint: %s", clientConfig.BaseURL)
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(clientConfig),
		config:     cfg,
		vocabulary: vocabulary,
	}
}

// ExtractIntent asks the chat model for a JSON intent payload
func (c *OpenAIClient) ExtractIntent(ctx context.Context, query string) (string, error) {
	if !c.config.Enabled {
		return "", fmt.Errorf("OpenAI API is not enabled")
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.intentPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
		Temperature: float32(c.config.ChatTemperature),
		MaxTokens:   c.config.ChatMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// Embed creates the embedding of a single query text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("OpenAI API is not enabled (missing API key)")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.config.EmbeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data")
	}

	return resp.Data[0].Embedding, nil
}

func (c *OpenAIClient) intentPrompt() string {
	quoted := make([]string, len(c.vocabulary))
	for i, name := range c.vocabulary {
		quoted[i] = `"` + name + `"`
	}

	return `You are an expert assistant for real estate queries in Spain. Parse the user's query into a structured intent.

Rules:
- required_features and desired_features may ONLY contain names from this list: ` + strings.Join(quoted, ", ") + `
- Subjective qualities such as "luminoso", "exterior", "reformado", "planta baja" or "tranquilo" are NOT features. Put them in semantic_description.
- Zones must be real neighbourhood or city names.
- Prices are monthly rent in euros. If a field is not mentioned, use null.
- Respond ONLY with valid JSON.

{
  "price_max": number | null,
  "price_min": number | null,
  "rooms_min": number | null,
  "rooms_max": number | null,
  "area_min": number | null,
  "required_features": array,
  "desired_features": array,
  "preferred_zones": array,
  "property_type": string | null,
  "semantic_description": string
}

Examples:
Query: "piso en Chamberí con ascensor por menos de 1500"
Response: {"price_max": 1500, "required_features": ["ascensor"], "preferred_zones": ["Chamberí"], "property_type": "piso", "semantic_description": "piso"}

Query: "ático luminoso y reformado de al menos 2 habitaciones, si puede ser con terraza"
Response: {"rooms_min": 2, "desired_features": ["terraza"], "property_type": "atico", "semantic_description": "ático luminoso y reformado"}`
}
