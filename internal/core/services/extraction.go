package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driving"
	"github.com/custodia-labs/scribe-cli/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// ExtractionService runs OCR over images and folds results into the
// active conversation.
type ExtractionService struct {
	recognizer driven.RecognitionService
	archive    driven.ExtractionArchive
	sessions   *SessionStore
}

// NewExtractionService creates the extraction service. The archive
// parameter is optional (can be nil); without it records are not
// exported standalone.
func NewExtractionService(
	recognizer driven.RecognitionService,
	archive driven.ExtractionArchive,
	sessions *SessionStore,
) *ExtractionService {
	return &ExtractionService{
		recognizer: recognizer,
		archive:    archive,
		sessions:   sessions,
	}
}

// ExtractImage recognises text in the image at the given path,
// normalises the result, exports the record keyed by the image name,
// and appends an extraction turn to the active session.
//
// Recognition failures are recovered locally: a failed extraction
// appends an attachment turn describing the problem (attachment turns
// are never replayed into generation context) and returns an error
// matching domain.ErrNoResult or domain.ErrNoText for the caller to
// present.
func (s *ExtractionService) ExtractImage(ctx context.Context, imagePath string) (*domain.ExtractionRecord, error) {
	if s.recognizer == nil {
		return nil, domain.ErrRecognitionUnavailable
	}

	imageName := filepath.Base(imagePath)
	logger.Section("OCR Extraction")
	logger.Debug("recognising %s", imagePath)

	raw, err := s.recognizer.Recognize(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("recognise %s: %w", imageName, err)
	}

	record, err := NormaliseRecognition(imageName, raw)
	if err != nil {
		if errors.Is(err, domain.ErrNoResult) || errors.Is(err, domain.ErrNoText) {
			s.sessions.AppendAttachment(fmt.Sprintf("Image %s: %v", imageName, err))
		}
		return nil, err
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, record); err != nil {
			// Standalone export is a side artifact; a failed write
			// must not lose the extraction itself.
			logger.Warn("export extraction for %s: %v", imageName, err)
		}
	}

	s.sessions.AppendExtraction(record)
	logger.Info("extracted %d lines from %s", len(record.Lines), imageName)
	return record, nil
}
