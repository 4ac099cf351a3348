// Package paddle provides a recognition service adapter for a
// PaddleOCR-compatible HTTP sidecar.
//
// The sidecar accepts a base64-encoded image and returns per-line
// recognised text, confidence scores, and bounding polygons using the
// PaddleOCR result keys (rec_texts, rec_scores, rec_polys).
package paddle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure RecognitionService implements the interface.
var _ driven.RecognitionService = (*RecognitionService)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "http://localhost:8868"
	DefaultLanguage = "en"
	DefaultTimeout  = 60 * time.Second

	// RecognitionRate throttles requests to the sidecar. OCR is
	// CPU-bound on the host; one in-flight request at a time keeps the
	// sidecar responsive.
	RecognitionRate = 1.0
)

// Config holds configuration for the recognition service.
type Config struct {
	// BaseURL is the sidecar base URL (default: http://localhost:8868).
	BaseURL string

	// Language is the recognition language pack (default: en).
	Language string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration
}

// RecognitionService runs OCR through the PaddleOCR sidecar.
type RecognitionService struct {
	client   *http.Client
	baseURL  string
	language string
	limiter  *rate.Limiter
}

// recognizeRequest is the sidecar request format.
type recognizeRequest struct {
	Image    string `json:"image"`
	Language string `json:"lang,omitempty"`
}

// recognizeResponse is the sidecar response format. Any field may be
// absent or shorter than the others; normalisation tolerates that.
type recognizeResponse struct {
	RecTexts  []string       `json:"rec_texts"`
	RecScores []float64      `json:"rec_scores"`
	RecPolys  [][][2]float64 `json:"rec_polys"`
}

// NewRecognitionService creates a new PaddleOCR sidecar client.
func NewRecognitionService(cfg Config) *RecognitionService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &RecognitionService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  cfg.BaseURL,
		language: cfg.Language,
		limiter:  rate.NewLimiter(rate.Limit(RecognitionRate), 1),
	}
}

// Recognize processes the image at the given path and returns the raw
// recognition result. A response with no recognised lines returns nil,
// which normalisation reports as "no result".
func (s *RecognitionService) Recognize(ctx context.Context, imagePath string) (*domain.RawRecognition, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	reqBody := recognizeRequest{
		Image:    base64.StdEncoding.EncodeToString(imageData),
		Language: s.language,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/ocr",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("recognising %s (%d bytes)", imagePath, len(imageData))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("recognition error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("recognition error (status %d): %s", resp.StatusCode, string(body))
	}

	var recResp recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&recResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// An empty result set is the backend's way of saying it found
	// nothing for the image.
	if len(recResp.RecTexts) == 0 && len(recResp.RecScores) == 0 {
		return nil, nil
	}

	return &domain.RawRecognition{
		Texts:  recResp.RecTexts,
		Scores: recResp.RecScores,
		Polys:  recResp.RecPolys,
	}, nil
}

// Ping validates the sidecar is reachable.
func (s *RecognitionService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("paddle: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("paddle: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("paddle: API returned status %d", resp.StatusCode)
	}
	return nil
}
