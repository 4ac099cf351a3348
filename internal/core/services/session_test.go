package services

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// fakeSessionArchive is an in-memory driven.SessionArchive with
// injectable failures.
type fakeSessionArchive struct {
	sessions map[string]*domain.Session
	saveErr  error
}

func newFakeSessionArchive() *fakeSessionArchive {
	return &fakeSessionArchive{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionArchive) Save(_ context.Context, session *domain.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	copied := *session
	copied.Turns = append([]domain.Turn(nil), session.Turns...)
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeSessionArchive) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (f *fakeSessionArchive) List(_ context.Context) ([]domain.Session, error) {
	out := make([]domain.Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeSessionArchive) Delete(_ context.Context, id string) error {
	if _, ok := f.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.sessions, id)
	return nil
}

func TestSessionStore_ActiveStartsEmpty(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())

	session := store.Active()

	require.NotNil(t, session)
	assert.Empty(t, session.ID)
	assert.Empty(t, session.Turns)
}

func TestSessionStore_SubmitUserTurn(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())

	turn := store.SubmitUserTurn("hello")

	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, domain.RoleUser, turn.Role)
	assert.Equal(t, domain.KindChat, turn.Kind)
	require.Len(t, store.Active().Turns, 1)
	assert.Equal(t, turn, store.Active().Turns[0])
}

func TestSessionStore_StartNew(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())
	store.SubmitUserTurn("hello")

	store.StartNew()

	assert.Empty(t, store.Active().Turns)
}

func TestSessionStore_EnrichInput_NoExtraction(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())
	store.SubmitUserTurn("earlier question")

	assert.Equal(t, "what next", store.EnrichInput("what next"))
}

func TestSessionStore_EnrichInput_RecentExtraction(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())
	record := domain.NewExtractionRecord("invoice.png", []domain.Line{
		{Text: "INVOICE #42", Confidence: 0.98},
	})
	store.AppendExtraction(record)

	enriched := store.EnrichInput("what is the invoice number?")

	assert.Equal(t,
		"what is the invoice number?\n\n[Context: Recent OCR extracted text: INVOICE #42]",
		enriched,
	)
}

func TestSessionStore_EnrichInput_ExtractionOutOfWindow(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())
	record := domain.NewExtractionRecord("invoice.png", []domain.Line{
		{Text: "INVOICE #42", Confidence: 0.98},
	})
	store.AppendExtraction(record)
	// Three newer turns push the extraction out of range.
	store.SubmitUserTurn("one")
	store.SubmitUserTurn("two")
	store.SubmitUserTurn("three")

	assert.Equal(t, "question", store.EnrichInput("question"))
}

func TestSessionStore_EnrichInput_NewestExtractionWins(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())
	older := domain.NewExtractionRecord("a.png", []domain.Line{{Text: "OLD", Confidence: 1}})
	newer := domain.NewExtractionRecord("b.png", []domain.Line{{Text: "NEW", Confidence: 1}})
	store.AppendExtraction(older)
	store.AppendExtraction(newer)

	enriched := store.EnrichInput("question")

	assert.Contains(t, enriched, "NEW")
	assert.NotContains(t, enriched, "OLD")
}

func TestSessionStore_EnrichInput_Idempotent(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())
	record := domain.NewExtractionRecord("a.png", []domain.Line{{Text: "TEXT", Confidence: 1}})
	store.AppendExtraction(record)

	first := store.EnrichInput("question")
	second := store.EnrichInput("question")

	assert.Equal(t, first, second)
}

func TestSessionStore_HistorySnapshot_IsACopy(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())
	store.SubmitUserTurn("hello")

	snapshot := store.HistorySnapshot()
	store.SubmitUserTurn("another")

	assert.Len(t, snapshot, 1)
	assert.Len(t, store.Active().Turns, 2)
}

func TestSessionStore_CommitAssistant_AssignsIDOnce(t *testing.T) {
	archive := newFakeSessionArchive()
	store := NewSessionStore(archive)
	store.SubmitUserTurn("hello")

	_, err := store.CommitAssistant(context.Background(), "hi there")
	require.NoError(t, err)

	id := store.Active().ID
	require.NotEmpty(t, id)

	store.SubmitUserTurn("more")
	_, err = store.CommitAssistant(context.Background(), "sure")
	require.NoError(t, err)

	assert.Equal(t, id, store.Active().ID)
	assert.Len(t, archive.sessions, 1)
	assert.Len(t, archive.sessions[id].Turns, 4)
}

func TestSessionStore_CommitAssistant_SaveFailureKeepsTurn(t *testing.T) {
	archive := newFakeSessionArchive()
	archive.saveErr = assert.AnError
	store := NewSessionStore(archive)
	store.SubmitUserTurn("hello")

	turn, err := store.CommitAssistant(context.Background(), "hi there")

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	// No rollback: the reply stays in memory for retry.
	assert.Equal(t, "hi there", turn.Content)
	assert.Len(t, store.Active().Turns, 2)
}

func TestSessionStore_SwitchAndList(t *testing.T) {
	archive := newFakeSessionArchive()
	store := NewSessionStore(archive)
	store.SubmitUserTurn("first conversation")
	_, err := store.CommitAssistant(context.Background(), "reply")
	require.NoError(t, err)
	savedID := store.Active().ID

	store.StartNew()
	require.Empty(t, store.Active().Turns)

	require.NoError(t, store.Switch(context.Background(), savedID))
	assert.Equal(t, savedID, store.Active().ID)
	assert.Len(t, store.Active().Turns, 2)

	summaries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, savedID, summaries[0].ID)
	assert.Equal(t, "first conversation", summaries[0].Title)
	assert.Equal(t, 2, summaries[0].TurnCount)
}

func TestSessionStore_Switch_NotFound(t *testing.T) {
	store := NewSessionStore(newFakeSessionArchive())

	err := store.Switch(context.Background(), "19990101_000000")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_Delete_ActiveSessionRestarts(t *testing.T) {
	archive := newFakeSessionArchive()
	store := NewSessionStore(archive)
	store.SubmitUserTurn("hello")
	_, err := store.CommitAssistant(context.Background(), "hi")
	require.NoError(t, err)
	id := store.Active().ID

	require.NoError(t, store.Delete(context.Background(), id))

	assert.Empty(t, store.Active().ID)
	assert.Empty(t, store.Active().Turns)
	assert.Empty(t, archive.sessions)
}
