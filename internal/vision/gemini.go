package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"visionx-backend/internal/config"
	"visionx-backend/internal/models"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	eyePrompt = "Analyze this eye/retina image. Estimate spherical power, cylindrical power, axis, and check for dryness. " +
		"If you cannot be certain, provide your best clinical estimate based on the visual evidence. Do not return N/A."
	facePrompt = "Analyze this face image to determine face shape (Oval, Round, Square, Heart, Diamond). Recommend 3 frame styles."
)

type GeminiAnalyzer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

// NewGeminiAnalyzer returns nil, nil when no API key is configured; the
// analyze route then answers 503.
func NewGeminiAnalyzer(ctx context.Context, cfg config.VisionConfig, log *zap.Logger) (*GeminiAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	return newGeminiAnalyzer(ctx, cfg, genai.HTTPOptions{}, log)
}

func newGeminiAnalyzer(ctx context.Context, cfg config.VisionConfig, opts genai.HTTPOptions, log *zap.Logger) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiAnalyzer{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log,
	}, nil
}

func (g *GeminiAnalyzer) AnalyzeEye(ctx context.Context, img Image) (*models.EyeTestResults, error) {
	var out models.EyeTestResults
	if err := g.generate(ctx, img, eyePrompt, eyeSchema(), &out); err != nil {
		return nil, err
	}
	if out.Abnormalities == nil {
		out.Abnormalities = []string{}
	}
	return &out, nil
}

func (g *GeminiAnalyzer) AnalyzeFace(ctx context.Context, img Image) (*FaceShapeResult, error) {
	var out FaceShapeResult
	if err := g.generate(ctx, img, facePrompt, faceSchema(), &out); err != nil {
		return nil, err
	}
	if out.FaceShape == "" {
		return nil, fmt.Errorf("%w: no face shape", ErrBadResponse)
	}
	return &out, nil
}

func (g *GeminiAnalyzer) generate(ctx context.Context, img Image, prompt string, schema *genai.Schema, dst any) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}
	g.log.Debug("image analysis finished", zap.String("model", g.model), zap.Duration("took", time.Since(start)))

	return decodeResponse(resp.Text(), dst)
}

func decodeResponse(text string, dst any) error {
	text = strings.TrimSpace(text)
	// some models still fence JSON output
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty", ErrBadResponse)
	}
	if err := json.Unmarshal([]byte(text), dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

func stringSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func eyeReadingSchema(annotated bool) *genai.Schema {
	s := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"spherical":   stringSchema(""),
			"cylindrical": stringSchema(""),
			"axis":        stringSchema(""),
			"dryness":     stringSchema(""),
		},
		Required: []string{"spherical", "cylindrical", "axis", "dryness"},
	}
	if annotated {
		s.Properties["spherical"].Description = "e.g. -1.25 or +0.50"
		s.Properties["cylindrical"].Description = "e.g. -0.75"
		s.Properties["axis"].Description = "e.g. 180"
		s.Properties["dryness"].Description = "Low, Medium, or High"
	}
	return s
}

func eyeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"left_eye":      eyeReadingSchema(true),
			"right_eye":     eyeReadingSchema(false),
			"abnormalities": {Type: genai.TypeArray, Items: stringSchema("")},
			"summary":       stringSchema(""),
		},
		Required: []string{"left_eye", "right_eye", "abnormalities", "summary"},
	}
}

func faceSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"faceShape":       stringSchema(""),
			"explanation":     stringSchema(""),
			"recommendations": {Type: genai.TypeArray, Items: stringSchema("")},
		},
		Required: []string{"faceShape", "explanation", "recommendations"},
	}
}
