package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"visionx-backend/internal/config"
	"visionx-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDecodeImage(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(pngHeader)

	t.Run("data url", func(t *testing.T) {
		img, err := DecodeImage("data:image/png;base64,"+b64, "")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MIMEType)
		assert.Equal(t, pngHeader, img.Data)
	})

	t.Run("bare base64 sniffed", func(t *testing.T) {
		img, err := DecodeImage(b64, "")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MIMEType)
	})

	t.Run("explicit mime type", func(t *testing.T) {
		img, err := DecodeImage(b64, "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.MIMEType)
	})

	tests := []struct {
		name  string
		input string
		mime  string
	}{
		{"empty", "", ""},
		{"not base64", "%%%%", ""},
		{"data url without comma", "data:image/png;base64", ""},
		{"data url not base64", "data:image/png," + b64, ""},
		{"unsupported type", base64.StdEncoding.EncodeToString([]byte("plain text")), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeImage(tt.input, tt.mime)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	var face FaceShapeResult
	require.NoError(t, decodeResponse("```json\n{\"faceShape\":\"Oval\",\"explanation\":\"x\",\"recommendations\":[\"Aviator\"]}\n```", &face))
	assert.Equal(t, "Oval", face.FaceShape)
	assert.Equal(t, []string{"Aviator"}, face.Recommendations)

	assert.ErrorIs(t, decodeResponse("  ", &face), ErrBadResponse)
	assert.ErrorIs(t, decodeResponse("not json", &face), ErrBadResponse)
}

func TestSchemasRequireEveryField(t *testing.T) {
	eye := eyeSchema()
	assert.Equal(t, genai.TypeObject, eye.Type)
	assert.ElementsMatch(t, []string{"left_eye", "right_eye", "abnormalities", "summary"}, eye.Required)
	assert.Equal(t, genai.TypeArray, eye.Properties["abnormalities"].Type)
	assert.Equal(t, "Low, Medium, or High", eye.Properties["left_eye"].Properties["dryness"].Description)

	face := faceSchema()
	assert.ElementsMatch(t, []string{"faceShape", "explanation", "recommendations"}, face.Required)
}

func fakeGemini(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAnalyzer(t *testing.T, srv *httptest.Server) *GeminiAnalyzer {
	t.Helper()
	g, err := newGeminiAnalyzer(context.Background(), config.VisionConfig{
		APIKey:  "test-key",
		Model:   "gemini-test",
		Timeout: 5 * time.Second,
	}, genai.HTTPOptions{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestGeminiAnalyzeEye(t *testing.T) {
	srv := fakeGemini(t, `{"left_eye":{"spherical":"-1.25","cylindrical":"-0.50","axis":"180","dryness":"Low"},
		"right_eye":{"spherical":"-1.00","cylindrical":"0","axis":"90","dryness":"Medium"},
		"abnormalities":[],"summary":"Mild myopia"}`)
	g := newTestAnalyzer(t, srv)

	res, err := g.AnalyzeEye(context.Background(), Image{Data: pngHeader, MIMEType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "-1.25", res.LeftEye.Spherical)
	assert.Equal(t, "Medium", res.RightEye.Dryness)
	assert.Equal(t, "Mild myopia", res.Summary)
	assert.NotNil(t, res.Abnormalities)
}

func TestGeminiAnalyzeFaceRejectsEmptyShape(t *testing.T) {
	srv := fakeGemini(t, `{"faceShape":"","explanation":"","recommendations":[]}`)
	g := newTestAnalyzer(t, srv)

	_, err := g.AnalyzeFace(context.Background(), Image{Data: pngHeader, MIMEType: "image/png"})
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestNewGeminiAnalyzerWithoutKey(t *testing.T) {
	g, err := NewGeminiAnalyzer(context.Background(), config.VisionConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, g)
}

type stubAnalyzer struct{ err error }

func (s stubAnalyzer) AnalyzeEye(context.Context, Image) (*models.EyeTestResults, error) {
	return &models.EyeTestResults{Summary: "ok"}, s.err
}

func (s stubAnalyzer) AnalyzeFace(context.Context, Image) (*FaceShapeResult, error) {
	return &FaceShapeResult{FaceShape: "Round"}, s.err
}

func TestInstrumentRecordsEachCall(t *testing.T) {
	var modes []string
	var failures int
	a := Instrument(stubAnalyzer{}, func(mode string, err error, d time.Duration) {
		modes = append(modes, mode)
		if err != nil {
			failures++
		}
	})

	_, err := a.AnalyzeEye(context.Background(), Image{})
	require.NoError(t, err)
	_, err = a.AnalyzeFace(context.Background(), Image{})
	require.NoError(t, err)

	assert.Equal(t, []string{"eye", "face"}, modes)
	assert.Zero(t, failures)
	assert.Nil(t, Instrument(nil, func(string, error, time.Duration) {}))
}
