package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"memegenius/internal/domain"
	"memegenius/internal/infra"
)

const (
	defaultCaptionModel = "gemini-3-pro-preview"
	defaultEditModel    = "gemini-2.5-flash-image"
	defaultCaptionCount = 5
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey       string
	BaseURL      string
	CaptionModel string
	EditModel    string
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Client talks to the Gemini generateContent endpoint for caption
// suggestions and instruction-driven image edits.
type Client struct {
	genai        *genai.Client
	captionModel string
	editModel    string
	logger       *infra.Logger
}

// NewClient constructs a Gemini client. Callers may provide a nil HTTP
// client; one with a sensible timeout is created.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(base, "/") + "/"}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}

	return &Client{
		genai:        gc,
		captionModel: modelOrDefault(opts.CaptionModel, defaultCaptionModel),
		editModel:    modelOrDefault(opts.EditModel, defaultEditModel),
		logger:       logger,
	}, nil
}

// CaptionModel returns the model used for caption suggestions.
func (c *Client) CaptionModel() string { return c.captionModel }

// EditModel returns the model used for image edits.
func (c *Client) EditModel() string { return c.editModel }

// SuggestCaptions asks the model for count captions describing the image.
// Every failure, including an unparsable answer, wraps domain.ErrSuggestion.
func (c *Client) SuggestCaptions(ctx context.Context, image domain.Payload, count int) ([]domain.CaptionSuggestion, error) {
	if image.IsZero() {
		return nil, fmt.Errorf("%w: no image", domain.ErrSuggestion)
	}
	if count <= 0 {
		count = defaultCaptionCount
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image.Bytes(), image.MIMEType()),
			genai.NewPartFromText(CaptionPrompt(count)),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   captionSchema(),
	}

	started := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.captionModel, contents, config)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", c.captionModel).Msg("gemini: caption request failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrSuggestion, err)
	}

	suggestions, err := parseSuggestions(responseText(resp))
	if err != nil {
		c.logger.Warn().Err(err).Str("model", c.captionModel).Msg("gemini: caption response unusable")
		return nil, err
	}

	c.logger.Debug().
		Str("model", c.captionModel).
		Int("image_bytes", image.Len()).
		Int("suggestions", len(suggestions)).
		Dur("elapsed", time.Since(started)).
		Msg("gemini: captions generated")
	return suggestions, nil
}

// EditImage applies a natural language instruction to the image and returns
// the first image part of the answer. Failures wrap domain.ErrEdit.
func (c *Client) EditImage(ctx context.Context, image domain.Payload, instruction string) (domain.Payload, error) {
	instruction = strings.TrimSpace(instruction)
	if image.IsZero() {
		return domain.Payload{}, fmt.Errorf("%w: no image", domain.ErrEdit)
	}
	if instruction == "" {
		return domain.Payload{}, fmt.Errorf("%w: empty instruction", domain.ErrEdit)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image.Bytes(), image.MIMEType()),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{}
	config.ResponseModalities = append(config.ResponseModalities, "TEXT", "IMAGE")

	started := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.editModel, contents, config)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", c.editModel).Msg("gemini: edit request failed")
		return domain.Payload{}, fmt.Errorf("%w: %v", domain.ErrEdit, err)
	}

	edited, ok := firstImage(resp)
	if !ok {
		note := truncate(responseText(resp), 200)
		c.logger.Warn().Str("model", c.editModel).Str("model_text", note).Msg("gemini: edit response has no image")
		if note != "" {
			return domain.Payload{}, fmt.Errorf("%w: no image in response (%s)", domain.ErrEdit, note)
		}
		return domain.Payload{}, fmt.Errorf("%w: no image in response", domain.ErrEdit)
	}

	c.logger.Debug().
		Str("model", c.editModel).
		Str("mime", edited.MIMEType()).
		Int("image_bytes", edited.Len()).
		Dur("elapsed", time.Since(started)).
		Msg("gemini: image edited")
	return edited, nil
}

// CaptionPrompt is the fixed caption instruction for count suggestions.
func CaptionPrompt(count int) string {
	return fmt.Sprintf("Analyze this image and provide %d funny, sarcastic, or trending meme captions. For each caption, provide a short explanation of why it fits.", count)
}

func captionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"text":        {Type: genai.TypeString},
				"explanation": {Type: genai.TypeString},
			},
			Required: []string{"text", "explanation"},
		},
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func firstImage(resp *genai.GenerateContentResponse) (domain.Payload, bool) {
	if resp == nil {
		return domain.Payload{}, false
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if strings.TrimSpace(mime) == "" {
				mime = "image/png"
			}
			return domain.NewPayload(mime, part.InlineData.Data), true
		}
	}
	return domain.Payload{}, false
}

func parseSuggestions(raw string) ([]domain.CaptionSuggestion, error) {
	raw = stripFence(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", domain.ErrSuggestion)
	}
	var items []domain.CaptionSuggestion
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: decode captions: %v", domain.ErrSuggestion, err)
	}
	out := make([]domain.CaptionSuggestion, 0, len(items))
	for i, item := range items {
		item.Text = strings.TrimSpace(item.Text)
		item.Explanation = strings.TrimSpace(item.Explanation)
		if item.Text == "" {
			return nil, fmt.Errorf("%w: caption %d has no text", domain.ErrSuggestion, i)
		}
		out = append(out, item)
	}
	return out, nil
}

// stripFence removes a ```json fence some models wrap around JSON output.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func modelOrDefault(model, fallback string) string {
	model = strings.TrimPrefix(strings.TrimSpace(model), "models/")
	if model == "" {
		return fallback
	}
	return model
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
