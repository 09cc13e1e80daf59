// ABOUTME: Bubble Tea model for the lexdesk chat client
// ABOUTME: Renders the session's stores and routes input to its operations

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lexdesk/lexdesk/internal/export"
	"github.com/lexdesk/lexdesk/internal/session"
)

// changeMsg carries one session change into the Bubble Tea loop.
type changeMsg struct {
	change session.Change
}

// changesClosedMsg signals the session's notifier shut down.
type changesClosedMsg struct{}

// opErrMsg reports a failed session operation started from the UI.
type opErrMsg struct {
	err error
}

// statusMsg is a transient line for the status bar.
type statusMsg struct {
	text string
}

type model struct {
	sess    *session.Session
	prefs   Prefs
	changes <-chan session.Change

	viewport  viewport.Model
	input     textinput.Model
	spin      spinner.Model
	width     int
	height    int
	ready     bool
	follow    bool
	status    string
	lastErr   error
	connected bool

	accentStyle lipgloss.Style
	dimStyle    lipgloss.Style
	errStyle    lipgloss.Style
	userStyle   lipgloss.Style
}

func newModel(sess *session.Session, prefs Prefs, changes <-chan session.Change) model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, /help for commands"
	ti.Prompt = "› "
	ti.CharLimit = 0
	ti.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(prefs.Theme.Accent))

	return model{
		sess:        sess,
		prefs:       prefs,
		changes:     changes,
		input:       ti,
		spin:        spin,
		follow:      true,
		accentStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(prefs.Theme.Accent)).Bold(true),
		dimStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color(prefs.Theme.Dim)),
		errStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color(prefs.Theme.Error)),
		userStyle:   lipgloss.NewStyle().Bold(true),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.waitForChange())
}

// waitForChange bridges the session notifier into the Tea loop.
func (m model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		change, ok := <-m.changes
		if !ok {
			return changesClosedMsg{}
		}
		return changeMsg{change: change}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		bodyHeight := msg.Height - 6 // header, status, input, hints
		if bodyHeight < 3 {
			bodyHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, bodyHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = bodyHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshTranscript()
		return m, nil

	case changeMsg:
		m.applyChange(msg.change)
		cmds = append(cmds, m.waitForChange())
		return m, tea.Batch(cmds...)

	case changesClosedMsg:
		return m, tea.Quit

	case opErrMsg:
		m.lastErr = msg.err
		return m, nil

	case statusMsg:
		m.status = msg.text
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEscape:
			m.sess.StopStreaming()
			return m, nil
		case tea.KeyPgUp:
			m.viewport.HalfViewUp()
			m.updateFollow()
			return m, nil
		case tea.KeyPgDown:
			m.viewport.HalfViewDown()
			m.updateFollow()
			return m, nil
		case tea.KeyEnd:
			m.viewport.GotoBottom()
			m.follow = true
			return m, nil
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.Reset()
			m.lastErr = nil
			m.status = ""
			if strings.HasPrefix(line, "/") {
				return m, m.handleCommand(line)
			}
			return m, m.send(line)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// applyChange redraws the parts of the screen a session change touches.
func (m *model) applyChange(change session.Change) {
	switch change.Kind {
	case session.ChangeMessages, session.ChangeConversations, session.ChangeTyping:
		m.refreshTranscript()
	case session.ChangeConnection:
		m.connected = change.Connected
		if !change.Connected && change.Err != nil {
			m.status = "disconnected: " + change.Err.Error()
		} else if change.Connected {
			m.status = ""
		}
	case session.ChangeHandoffs:
		pending := m.sess.Handoffs().Pending()
		if len(pending) > 0 {
			m.status = fmt.Sprintf("%d handoff request(s) pending", len(pending))
		} else {
			m.status = ""
		}
	case session.ChangeError:
		m.lastErr = change.Err
	}
}

// send runs the streaming send off the Tea loop.
func (m model) send(content string) tea.Cmd {
	return func() tea.Msg {
		if err := m.sess.SendStreaming(context.Background(), content); err != nil {
			return opErrMsg{err: err}
		}
		return nil
	}
}

func (m model) handleCommand(line string) tea.Cmd {
	parts := strings.Fields(line)
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return tea.Quit

	case "/new":
		m.sess.StartNewChat()
		return nil

	case "/stop":
		m.sess.StopStreaming()
		return nil

	case "/conversations", "/list":
		return func() tea.Msg {
			if err := m.sess.Rehydrate(context.Background()); err != nil {
				return opErrMsg{err: err}
			}
			list := m.sess.Conversations().List()
			if len(list) == 0 {
				return statusMsg{text: "no conversations"}
			}
			lines := make([]string, 0, len(list))
			for i, conv := range list {
				title := conv.Title
				if title == "" {
					title = conv.ID
				}
				lines = append(lines, fmt.Sprintf("%d: %s", i+1, title))
			}
			return statusMsg{text: strings.Join(lines, "  •  ")}
		}

	case "/select":
		if len(args) < 1 {
			return func() tea.Msg { return statusMsg{text: "usage: /select <number>"} }
		}
		idx, err := strconv.Atoi(args[0])
		list := m.sess.Conversations().List()
		if err != nil || idx < 1 || idx > len(list) {
			return func() tea.Msg { return statusMsg{text: "usage: /select <number> (see /conversations)"} }
		}
		id := list[idx-1].ID
		return func() tea.Msg {
			if err := m.sess.SelectConversation(context.Background(), id); err != nil {
				return opErrMsg{err: err}
			}
			return nil
		}

	case "/delete":
		if len(args) < 1 {
			return func() tea.Msg { return statusMsg{text: "usage: /delete <number>"} }
		}
		idx, err := strconv.Atoi(args[0])
		list := m.sess.Conversations().List()
		if err != nil || idx < 1 || idx > len(list) {
			return func() tea.Msg { return statusMsg{text: "usage: /delete <number> (see /conversations)"} }
		}
		id := list[idx-1].ID
		return func() tea.Msg {
			if err := m.sess.DeleteConversation(context.Background(), id); err != nil {
				return opErrMsg{err: err}
			}
			return statusMsg{text: "conversation deleted"}
		}

	case "/rename":
		if len(args) < 2 {
			return func() tea.Msg { return statusMsg{text: "usage: /rename <number> <title>"} }
		}
		idx, err := strconv.Atoi(args[0])
		list := m.sess.Conversations().List()
		if err != nil || idx < 1 || idx > len(list) {
			return func() tea.Msg { return statusMsg{text: "usage: /rename <number> <title> (see /conversations)"} }
		}
		id := list[idx-1].ID
		title := strings.Join(args[1:], " ")
		return func() tea.Msg {
			if err := m.sess.RenameConversation(context.Background(), id, title); err != nil {
				return opErrMsg{err: err}
			}
			return statusMsg{text: "renamed to " + title}
		}

	case "/handoff":
		priority := session.PriorityNormal
		if len(args) > 0 {
			switch args[0] {
			case "high":
				priority, args = session.PriorityHigh, args[1:]
			case "urgent":
				priority, args = session.PriorityUrgent, args[1:]
			}
		}
		reason := strings.Join(args, " ")
		if reason == "" {
			return func() tea.Msg { return statusMsg{text: "usage: /handoff [high|urgent] <reason>"} }
		}
		return func() tea.Msg {
			if _, err := m.sess.RequestHandoff(context.Background(), reason, priority); err != nil {
				return opErrMsg{err: err}
			}
			return statusMsg{text: "handoff requested"}
		}

	case "/export":
		format := export.FormatMarkdown
		if len(args) > 0 && args[0] == "html" {
			format = export.FormatHTML
		}
		active := m.sess.Conversations().Active()
		conv, ok := m.sess.Conversations().Get(active)
		if !ok {
			conv = session.Conversation{Title: "New chat"}
		}
		messages := m.sess.Messages().Messages()
		dir := m.prefs.ExportDir
		return func() tea.Msg {
			path, err := export.New(dir).Export(conv, messages, format)
			if err != nil {
				return opErrMsg{err: err}
			}
			return statusMsg{text: "exported to " + path}
		}

	case "/help":
		return func() tea.Msg {
			return statusMsg{text: "/new /conversations /select N /rename N <title> /delete N /handoff [urgent] <reason> /stop /export [html] /quit"}
		}

	default:
		return func() tea.Msg { return statusMsg{text: "unknown command: " + cmd} }
	}
}

// updateFollow recomputes whether new messages should auto-scroll, based
// on how far the reader is from the bottom.
func (m *model) updateFollow() {
	total := m.viewport.TotalLineCount()
	m.follow = session.ShouldFollow(m.viewport.YOffset, total, m.viewport.Height, m.followThresholdLines())
}

// followThresholdLines converts the prefs threshold into viewport rows.
// The stored value is tuned for pixel-ish units; a few rows is the
// terminal equivalent.
func (m *model) followThresholdLines() int {
	lines := m.prefs.FollowThreshold / 20
	if lines < 2 {
		lines = 2
	}
	return lines
}

func (m *model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *model) renderTranscript() string {
	messages := m.sess.Messages().Messages()
	if len(messages) == 0 {
		return m.dimStyle.Render("New chat. Type a message to start.")
	}

	var b strings.Builder
	for _, msg := range messages {
		switch msg.Role {
		case session.RoleUser:
			label := "You"
			switch msg.Delivery {
			case session.DeliveryPending:
				label += " (sending)"
			case session.DeliveryFailed:
				label += " (failed)"
			}
			b.WriteString(m.userStyle.Render(label) + "\n")
			b.WriteString(msg.Content + "\n\n")
		case session.RoleAssistant:
			b.WriteString(m.accentStyle.Render("Assistant") + "\n")
			b.WriteString(msg.Content)
			if msg.Streaming {
				b.WriteString(" " + m.spin.View())
			}
			b.WriteString("\n")
			if msg.Meta != nil && msg.Meta.Model != "" {
				b.WriteString(m.dimStyle.Render(fmt.Sprintf("%s · confidence %.2f", msg.Meta.Model, msg.Meta.Confidence)) + "\n")
			}
			b.WriteString("\n")
		default:
			b.WriteString(m.dimStyle.Render(msg.Content) + "\n\n")
		}
	}

	active := m.sess.Conversations().Active()
	if active != "" && m.sess.TypingIn(active) {
		b.WriteString(m.dimStyle.Render("assistant is typing…") + "\n")
	}
	return b.String()
}

func (m model) View() string {
	if !m.ready {
		return "loading…"
	}

	title := "lexdesk"
	if active := m.sess.Conversations().Active(); active != "" {
		if conv, ok := m.sess.Conversations().Get(active); ok && conv.Title != "" {
			title += " · " + conv.Title
		} else {
			title += " · " + active
		}
	} else {
		title += " · new chat"
	}
	header := m.accentStyle.Render(title)

	conn := m.dimStyle.Render("offline")
	if m.connected {
		conn = m.accentStyle.Render("online")
	}

	statusParts := []string{conn, "context: " + m.prefs.Context}
	if m.sess.Messages().Streaming() {
		statusParts = append(statusParts, "streaming "+m.spin.View()+" (esc to stop)")
	}
	if !m.follow {
		statusParts = append(statusParts, "scrolled up (End jumps to latest)")
	}
	if m.status != "" {
		statusParts = append(statusParts, m.status)
	}
	if m.lastErr != nil {
		statusParts = append(statusParts, m.errStyle.Render(m.lastErr.Error()))
	}
	status := m.dimStyle.Render(strings.Join(statusParts, " • "))

	hints := m.dimStyle.Render("Enter send • Esc stop • PgUp/PgDn scroll • /help")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		status,
		m.input.View(),
		hints,
	)
}
