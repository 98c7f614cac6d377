package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-pro")
	model.SetTemperature(0.7)

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// BioPrompt is the profile data a bio suggestion is built from.
type BioPrompt struct {
	Name        string
	Age         int
	Hobbies     []string
	Habits      []string
	Personality []string
}

// GenerateBios asks the model for three short profile bios.
func (c *GeminiClient) GenerateBios(ctx context.Context, p BioPrompt) ([]string, error) {
	prompt := fmt.Sprintf(`
		Write 3 short, friendly bios for a ride-sharing and dating app profile.
		Name: %s
		Age: %d
		Hobbies: %v
		Habits: %v
		Personality: %v

		Each bio must be under 300 characters and mention at least one hobby.
		Output: JSON array of strings. Example: ["Hi...", "Hello..."]
	`, p.Name, p.Age, p.Hobbies, p.Habits, p.Personality)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	return parseStringList(sb.String())
}

// parseStringList reads a JSON array of strings out of a model reply,
// tolerating markdown fences and falling back to one entry per line.
func parseStringList(raw string) ([]string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var items []string
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "[") && !strings.HasSuffix(line, "]") {
				items = append(items, line)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("failed to parse model output: %w", err)
		}
	}

	return items, nil
}
