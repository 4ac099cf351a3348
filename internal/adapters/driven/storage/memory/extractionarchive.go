package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
	"github.com/custodia-labs/scribe-cli/internal/core/ports/driven"
)

// Ensure ExtractionArchive implements the interface.
var _ driven.ExtractionArchive = (*ExtractionArchive)(nil)

// ExtractionArchive is an in-memory implementation of driven.ExtractionArchive.
type ExtractionArchive struct {
	mu      sync.RWMutex
	records map[string]domain.ExtractionRecord
}

// NewExtractionArchive creates a new in-memory extraction archive.
func NewExtractionArchive() *ExtractionArchive {
	return &ExtractionArchive{
		records: make(map[string]domain.ExtractionRecord),
	}
}

// Save stores or replaces the record for an image.
func (a *ExtractionArchive) Save(_ context.Context, record *domain.ExtractionRecord) error {
	if record.ImageName == "" {
		return domain.ErrInvalidInput
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records[record.ImageName] = *record
	return nil
}

// Get retrieves the record for an image name.
func (a *ExtractionArchive) Get(_ context.Context, imageName string) (*domain.ExtractionRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.records[imageName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}
