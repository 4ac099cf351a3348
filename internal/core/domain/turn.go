package domain

import "time"

// Role identifies the author of a Turn.
type Role string

const (
	// RoleUser marks turns authored by the person chatting.
	RoleUser Role = "user"

	// RoleAssistant marks turns authored by the generation backend.
	RoleAssistant Role = "assistant"
)

// Kind identifies what a Turn carries.
type Kind string

const (
	// KindChat is free-form conversational text. The default.
	KindChat Kind = "chat"

	// KindAttachment marks a non-text upload notice.
	KindAttachment Kind = "attachment"

	// KindExtraction marks OCR-derived content. Turns of this kind
	// carry an ExtractionRecord payload.
	KindExtraction Kind = "extraction"
)

// Turn is one conversational unit within a Session.
//
// Turns are immutable after creation. The Extraction payload is present
// if and only if Kind is KindExtraction; the constructors below are the
// only way to build a Turn, which enforces that invariant at
// construction time rather than by convention.
type Turn struct {
	// ID is the unique identifier for the turn.
	ID string `json:"id"`

	// Role is who authored the turn.
	Role Role `json:"role"`

	// Kind is what the turn carries.
	Kind Kind `json:"kind"`

	// Content is the display/consumption text. For extraction turns
	// this is the composed human-readable block.
	Content string `json:"content"`

	// Extraction is the structured OCR payload, set only for
	// KindExtraction turns.
	Extraction *ExtractionRecord `json:"extraction,omitempty"`

	// CreatedAt is when the turn was created. Immutable once set.
	CreatedAt time.Time `json:"created_at"`
}

// NewChatTurn creates a plain chat turn.
func NewChatTurn(id string, role Role, content string) Turn {
	return Turn{
		ID:        id,
		Role:      role,
		Kind:      KindChat,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// NewAttachmentTurn creates a user turn noting a non-text upload.
func NewAttachmentTurn(id, notice string) Turn {
	return Turn{
		ID:        id,
		Role:      RoleUser,
		Kind:      KindAttachment,
		Content:   notice,
		CreatedAt: time.Now(),
	}
}

// NewExtractionTurn creates a user turn carrying OCR-derived content.
// The display content is the record's composed block.
func NewExtractionTurn(id string, record *ExtractionRecord) Turn {
	return Turn{
		ID:         id,
		Role:       RoleUser,
		Kind:       KindExtraction,
		Content:    record.DisplayBlock(),
		Extraction: record,
		CreatedAt:  time.Now(),
	}
}

// IsChat reports whether the turn is plain conversational text.
func (t Turn) IsChat() bool {
	return t.Kind == KindChat
}
