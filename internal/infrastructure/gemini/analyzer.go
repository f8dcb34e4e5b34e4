package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"damage-vision/internal/domain/port"
)

// DefaultModel модель по умолчанию.
const DefaultModel = "gemini-2.5-flash"

// Analyzer отправляет снимок в Gemini и возвращает текст ответа.
type Analyzer struct {
	APIKey string
	Model  string
}

func New(apiKey, model string) *Analyzer {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Analyzer{
		APIKey: strings.TrimSpace(apiKey),
		Model:  model,
	}
}

// Analyze делает один вызов generateContent: картинка как image/jpeg плюс промпт.
func (a *Analyzer) Analyze(ctx context.Context, imageData []byte, prompt string) (string, error) {
	if a.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(a.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini: new client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(a.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}

	resp, err := m.GenerateContent(ctx, genai.ImageData("jpeg", imageData), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	txt := responseText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return txt, nil
}

// responseText склеивает текстовые части первого кандидата с содержимым.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

var _ port.DamageAnalyzer = (*Analyzer)(nil)
