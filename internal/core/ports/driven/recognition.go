package driven

import (
	"context"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// RecognitionService runs OCR over an image and returns the backend's
// raw result. The result may be absent, empty, or malformed; callers
// normalise it before use.
//
// This is an optional service - when nil, image enrichment is disabled
// and the assistant degrades gracefully to chat-only.
type RecognitionService interface {
	// Recognize processes the image at the given path.
	// A nil result with a nil error means the backend returned nothing.
	Recognize(ctx context.Context, imagePath string) (*domain.RawRecognition, error)

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error
}
