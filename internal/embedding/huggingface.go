package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	DefaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"
	DefaultModel              = "BAAI/bge-small-en-v1.5"
	DefaultDimension          = 384
)

// HuggingFaceConfig configures the Inference API feature-extraction call.
type HuggingFaceConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
}

// HuggingFaceEmbedder calls the feature-extraction pipeline of a sentence
// transformer hosted on the Hugging Face Inference API.
type HuggingFaceEmbedder struct {
	client    *resty.Client
	endpoint  string
	apiKey    string
	model     string
	dimension int
}

func NewHuggingFace(cfg HuggingFaceConfig, client *resty.Client) *HuggingFaceEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHuggingFaceBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = DefaultDimension
	}
	return &HuggingFaceEmbedder{
		client:    client,
		endpoint:  strings.TrimRight(cfg.BaseURL, "/") + "/models/" + cfg.Model,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}
}

func (e *HuggingFaceEmbedder) Dimension() int   { return e.dimension }
func (e *HuggingFaceEmbedder) Model() string    { return e.model }
func (e *HuggingFaceEmbedder) Provider() string { return "huggingface" }

func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("%w: set HF_API_KEY", ErrMissingAPIKey)
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetAuthToken(e.apiKey).
		SetBody(map[string]interface{}{
			"inputs": text,
			"options": map[string]interface{}{
				"wait_for_model": true,
			},
		}).
		Post(e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: hugging face API error (%d): %s",
			ErrRequestFailed, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	return parseFeatureVector(resp.Body())
}

// parseFeatureVector accepts both shapes the pipeline returns for a single
// input: a flat [f, f, ...] or a batch of one [[f, f, ...]].
func parseFeatureVector(body []byte) ([]float32, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrUnexpectedResponse)
	}

	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, truncate(result.Raw, 120))
	}

	values := result.Array()
	if len(values) > 0 && values[0].IsArray() {
		values = values[0].Array()
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrUnexpectedResponse)
	}

	vec := make([]float32, len(values))
	for i, v := range values {
		if v.Type != gjson.Number {
			return nil, fmt.Errorf("%w: element %d is %s", ErrUnexpectedResponse, i, v.Type)
		}
		vec[i] = float32(v.Float())
	}
	return vec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
