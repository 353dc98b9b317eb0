// Package watch is a terminal observer for a practice room. It renders the
// target word checklist, the session state and the live transcript from the
// room's side channel.
package watch

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/vocablive/core/events"
	"github.com/koscakluka/vocablive/core/transport"
	"github.com/koscakluka/vocablive/core/words"
	"github.com/muesli/reflow/wordwrap"
)

const checklistWidth = 28

type transcriptLine struct {
	role string
	text string
}

// Model is the root Bubble Tea model.
type Model struct {
	client *Client
	conn   transport.Conn
	ctx    context.Context
	cancel context.CancelFunc

	keys       keyMap
	spinner    spinner.Model
	transcript viewport.Model
	width      int
	height     int

	// Words listed up front; detected words outside this list are appended.
	words     []string
	found     map[string]bool
	state     string
	remaining int
	complete  bool
	lines     []transcriptLine

	connected    bool
	ended        bool
	participants int
	err          error
}

// New creates the root model. targetWords may be empty, the checklist then
// grows as words are detected.
func New(client *Client, targetWords []string) Model {
	ctx, cancel := context.WithCancel(context.Background())
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		client:     client,
		ctx:        ctx,
		cancel:     cancel,
		keys:       defaultKeyMap(),
		spinner:    s,
		transcript: viewport.New(0, 0),
		words:      words.Normalize(targetWords),
		found:      make(map[string]bool),
		remaining:  -1,
	}
}

func (m Model) Init() tea.Cmd {
	if m.client == nil {
		return m.spinner.Tick
	}
	return tea.Batch(m.client.Connect(m.ctx), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.transcript.Width = max(msg.Width-checklistWidth-2, 10)
		m.transcript.Height = max(msg.Height-4, 3)
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			if m.conn != nil {
				m.conn.Close()
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.transcript.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.transcript.ScrollDown(1)
		}
		return m, nil

	case spinner.TickMsg:
		if m.ended {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ConnectedMsg:
		m.conn = msg.conn
		m.connected = true
		return m, Next(m.conn)

	case DisconnectedMsg:
		m.connected = false
		m.ended = true
		m.err = msg.Err
		return m, nil

	case ParticipantMsg:
		if msg.Joined {
			m.participants++
		} else if m.participants > 0 {
			m.participants--
		}
		return m, Next(m.conn)

	case WordDetectedMsg:
		m.markFound(msg.Word)
		return m, Next(m.conn)

	case WordsCompleteMsg:
		m.markFound(msg.Word)
		m.complete = true
		return m, Next(m.conn)

	case SessionStateMsg:
		m.state = msg.Payload.State
		m.remaining = msg.Payload.Remaining
		return m, Next(m.conn)

	case TranscriptMsg:
		m.appendTranscript(msg.Payload)
		return m, Next(m.conn)

	case RoomExpiredMsg:
		m.state = "expired"
		return m, Next(m.conn)

	case roomEventMsg:
		return m, Next(m.conn)
	}

	return m, nil
}

func (m *Model) markFound(word string) {
	k := words.Key(word)
	if k == "" {
		return
	}
	m.found[k] = true
	for _, w := range m.words {
		if words.Key(w) == k {
			return
		}
	}
	m.words = append(m.words, word)
}

// appendTranscript merges consecutive fragments of the same speaker into one
// line, the engine streams transcripts in small pieces.
func (m *Model) appendTranscript(payload events.TranscriptPayload) {
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return
	}

	if n := len(m.lines); n > 0 && m.lines[n-1].role == payload.Role {
		m.lines[n-1].text += " " + text
	} else {
		m.lines = append(m.lines, transcriptLine{role: payload.Role, text: text})
	}
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	width := m.transcript.Width
	if width <= 0 {
		width = 60
	}

	rendered := make([]string, 0, len(m.lines))
	for _, line := range m.lines {
		label := styleAssistant.Render("agent")
		if line.role == events.TranscriptRoleUser {
			label = styleLearner.Render("you")
		}
		rendered = append(rendered, label+"\n"+wordwrap.String(line.text, width))
	}
	m.transcript.SetContent(strings.Join(rendered, "\n\n"))
	m.transcript.GotoBottom()
}

func (m Model) View() string {
	header := styleHeader.Render("vocablive") + "  " + m.statusLine()

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(checklistWidth).Render(m.checklist()),
		m.transcript.View(),
	)

	help := styleDimmed.Render("  j/k:scroll  q:quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, help)
}

func (m Model) statusLine() string {
	switch {
	case m.err != nil:
		return styleError.Render("disconnected: " + m.err.Error())
	case m.ended:
		return styleDimmed.Render("session closed")
	case !m.connected:
		return m.spinner.View() + " joining room"
	}

	status := m.state
	if status == "" {
		status = "waiting for learner"
	}
	if m.remaining >= 0 {
		status = fmt.Sprintf("%s, %d left", status, m.remaining)
	}
	return fmt.Sprintf("%s %s (%d in room)", m.spinner.View(), status, m.participants)
}

func (m Model) checklist() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("Words") + "\n")
	for _, w := range m.words {
		if m.found[words.Key(w)] {
			b.WriteString(styleFound.Render("✓ "+w) + "\n")
		} else {
			b.WriteString(stylePending.Render("· "+w) + "\n")
		}
	}
	if m.complete {
		b.WriteString("\n" + styleComplete.Render("All words found!") + "\n")
	}
	return b.String()
}
