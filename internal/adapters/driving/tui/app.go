package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/scribe-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/scribe-cli/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// viewport shows the conversation transcript.
	viewport viewport.Model

	// input is the message entry line.
	input textinput.Model

	// pending accumulates the reply currently being streamed.
	pending strings.Builder

	// stream delivers fragments from the in-flight generation.
	stream chan tea.Msg

	// streaming reports whether a reply is in flight.
	streaming bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Focus()
	input.CharLimit = 0

	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   styles.DefaultStyles(),
		viewport: viewport.New(0, 0),
		input:    input,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	if ctx != nil {
		a.ctx = ctx
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("scribe - Local Chat"),
		textinput.Blink,
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		// Title, input and status bar each take one row plus borders.
		a.viewport.Width = msg.Width
		a.viewport.Height = max(msg.Height-6, 1)
		a.input.Width = max(msg.Width-6, 10)
		a.refreshTranscript()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.StreamDelta:
		a.pending.WriteString(msg.Fragment)
		a.refreshTranscript()
		return a, a.waitForStream()

	case messages.ReplyCompleted:
		a.streaming = false
		a.stream = nil
		a.pending.Reset()
		a.err = msg.Err
		a.refreshTranscript()
		return a, nil

	case messages.SessionReset:
		a.err = nil
		a.pending.Reset()
		a.refreshTranscript()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKey routes keyboard input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return a, tea.Quit

	case "ctrl+n":
		if !a.streaming {
			a.ports.Session.StartNew()
			return a, func() tea.Msg { return messages.SessionReset{} }
		}
		return a, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case "enter":
		if a.streaming {
			return a, nil
		}
		input := strings.TrimSpace(a.input.Value())
		if input == "" {
			return a, nil
		}
		a.input.Reset()
		a.err = nil
		return a, a.startSend(input)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// startSend launches the generation in the background and begins
// listening for streamed fragments.
func (a *App) startSend(input string) tea.Cmd {
	ch := make(chan tea.Msg, 32)
	a.stream = ch
	a.streaming = true

	go func() {
		turn, err := a.ports.Chat.Send(a.ctx, input, func(fragment string) {
			ch <- messages.StreamDelta{Fragment: fragment}
		})
		ch <- messages.ReplyCompleted{Turn: turn, Err: err}
		close(ch)
	}()

	a.refreshTranscript()
	return a.waitForStream()
}

// waitForStream returns a command that delivers the next stream message.
func (a *App) waitForStream() tea.Cmd {
	ch := a.stream
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

// refreshTranscript re-renders the conversation into the viewport and
// scrolls to the bottom.
func (a *App) refreshTranscript() {
	a.viewport.SetContent(a.renderTranscript())
	a.viewport.GotoBottom()
}

// renderTranscript formats the active session's turns plus any
// partially streamed reply.
func (a *App) renderTranscript() string {
	var b strings.Builder

	session := a.ports.Session.Active()
	for _, turn := range session.Turns {
		switch {
		case turn.Role == domain.RoleUser && turn.IsChat():
			b.WriteString(a.styles.UserLabel.Render("You"))
		case turn.Role == domain.RoleUser:
			// Attachment and extraction turns are shown muted.
			b.WriteString(a.styles.Muted.Render(turn.Content))
			b.WriteString("\n\n")
			continue
		default:
			b.WriteString(a.styles.AssistantLabel.Render("Scribe"))
		}
		b.WriteString("\n")
		b.WriteString(a.styles.Normal.Render(turn.Content))
		b.WriteString("\n\n")
	}

	if a.streaming {
		b.WriteString(a.styles.AssistantLabel.Render("Scribe"))
		b.WriteString("\n")
		if a.pending.Len() > 0 {
			b.WriteString(a.styles.Normal.Render(a.pending.String()))
		} else {
			b.WriteString(a.styles.Muted.Render("..."))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Ready reports whether the app has received its initial window size.
func (a *App) Ready() bool {
	return a.ready
}

// Streaming reports whether a reply is currently in flight.
func (a *App) Streaming() bool {
	return a.streaming
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	title := a.styles.Title.Render("scribe") + " " +
		a.styles.Muted.Render(a.ports.Chat.ModelName())

	status := a.ports.Session.Active().Title()
	if a.err != nil {
		status = a.styles.Error.Render(fmt.Sprintf("Error: %v", a.err))
	}

	help := a.styles.Muted.Render("enter send · ctrl+n new session · esc quit")

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s\n%s",
		title,
		a.viewport.View(),
		a.styles.InputField.Render(a.input.View()),
		a.styles.StatusBar.Width(a.width).Render(status),
		help,
	)
}
