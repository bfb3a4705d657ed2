// Package app provides the BubbleTea application model for the Parley TUI.
//
// The App struct renders the conversation transcript and a status bar, and
// drives the orchestrator from the keyboard: space toggles recording, q
// quits. Orchestrator callbacks are pumped back into the program as typed
// messages so all UI state changes happen on the update loop.
//
// Usage:
//
//	cfg, _ := config.LoadConfig("parley.yaml")
//	err := app.Run(cfg)
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	orchestration "github.com/parleyvoice/parley-core/core"
	"github.com/parleyvoice/parley-core/core/agent"
	"github.com/parleyvoice/parley-core/core/audio/miniaudio"
	"github.com/parleyvoice/parley-core/core/audio/portaudio"
	"github.com/parleyvoice/parley-core/core/session"
	"github.com/parleyvoice/parley-core/core/speech"
	"github.com/parleyvoice/parley-core/internal/config"
)

// ═══════════════════════════════════════════════════════════════════════════════
// MESSAGE TYPES
// ═══════════════════════════════════════════════════════════════════════════════

// stateChangedMsg is sent for every orchestrator state transition.
type stateChangedMsg struct {
	from orchestration.State
	to   orchestration.State
}

// transcriptEntryMsg is sent for every line appended to the transcript,
// restored history included.
type transcriptEntryMsg struct {
	entry orchestration.TranscriptEntry
}

// captureDeniedMsg is sent when microphone access was refused.
type captureDeniedMsg struct {
	guidance string
}

// turnFailedMsg is sent when a turn failed before a reply could play.
type turnFailedMsg struct {
	reason string
}

// playbackDegradedMsg is sent when a reply falls from one playback source to
// a lesser one.
type playbackDegradedMsg struct {
	from   orchestration.PlaybackSource
	to     orchestration.PlaybackSource
	reason string
}

// toggleFailedMsg is sent when a recording toggle was rejected.
type toggleFailedMsg struct {
	err error
}

// ═══════════════════════════════════════════════════════════════════════════════
// APP MODEL
// ═══════════════════════════════════════════════════════════════════════════════

// App is the BubbleTea model for the Parley terminal UI.
type App struct {
	orchestrator *orchestration.Orchestrator
	sessionID    string

	// Components
	transcriptView viewport.Model
	thinking       spinner.Model

	// State
	entries []orchestration.TranscriptEntry
	state   orchestration.State
	notice  string

	// Dimensions
	width, height int

	styles appStyles
}

// appStyles holds all computed lipgloss styles.
type appStyles struct {
	titleBar       lipgloss.Style
	titleText      lipgloss.Style
	sessionText    lipgloss.Style
	userLabel      lipgloss.Style
	assistantLabel lipgloss.Style
	entryText      lipgloss.Style
	statusBar      lipgloss.Style
	stateIdle      lipgloss.Style
	stateRecording lipgloss.Style
	stateBusy      lipgloss.Style
	notice         lipgloss.Style
	help           lipgloss.Style
}

// New creates an App bound to an orchestrator. The orchestrator must already
// be orchestrating with callbacks that feed this program.
func New(orchestrator *orchestration.Orchestrator) *App {
	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &App{
		orchestrator:   orchestrator,
		sessionID:      orchestrator.SessionID(),
		transcriptView: vp,
		thinking:       sp,
		entries:        orchestrator.Transcript(),
		state:          orchestrator.State(),
		styles:         buildStyles(),
	}
}

// buildStyles creates all lipgloss styles.
func buildStyles() appStyles {
	return appStyles{
		titleBar: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		titleText: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")),
		sessionText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		userLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")),
		assistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		entryText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		statusBar: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		stateIdle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
		stateRecording: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")),
		stateBusy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),
		help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")),
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// TEA MODEL IMPLEMENTATION
// ═══════════════════════════════════════════════════════════════════════════════

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.thinking.Tick
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return a.handleWindowSize(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.thinking, cmd = a.thinking.Update(msg)
		return a, cmd

	case stateChangedMsg:
		a.state = msg.to
		// Starting a new recording clears guidance from the previous turn.
		if msg.to == orchestration.StateRecording {
			a.notice = ""
		}
		return a, nil

	case transcriptEntryMsg:
		a.entries = append(a.entries, msg.entry)
		a.updateTranscriptContent()
		a.transcriptView.GotoBottom()
		return a, nil

	case captureDeniedMsg:
		a.notice = msg.guidance
		return a, nil

	case turnFailedMsg:
		a.notice = fmt.Sprintf("Turn failed: %s", msg.reason)
		return a, nil

	case playbackDegradedMsg:
		if msg.to == orchestration.PlaybackTextOnly {
			a.notice = "Reply audio unavailable, showing text only"
		}
		return a, nil

	case toggleFailedMsg:
		a.notice = fmt.Sprintf("Error: %v", msg.err)
		return a, nil
	}

	var cmd tea.Cmd
	a.transcriptView, cmd = a.transcriptView.Update(msg)
	return a, cmd
}

// handleWindowSize handles terminal resize events.
func (a *App) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	a.width = msg.Width
	a.height = msg.Height

	titleBarHeight := 1
	statusBarHeight := 1
	transcriptHeight := a.height - titleBarHeight - statusBarHeight
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}

	a.transcriptView.Width = a.width
	a.transcriptView.Height = transcriptHeight

	a.updateTranscriptContent()
	a.transcriptView.GotoBottom()

	return a, nil
}

// handleKey handles keyboard input.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit

	case " ":
		return a, a.toggleRecording()

	case "up", "k":
		a.transcriptView.ScrollUp(1)
		return a, nil

	case "down", "j":
		a.transcriptView.ScrollDown(1)
		return a, nil

	case "pgup":
		a.transcriptView.HalfViewUp()
		return a, nil

	case "pgdown":
		a.transcriptView.HalfViewDown()
		return a, nil
	}

	return a, nil
}

// toggleRecording flips between starting and submitting a recording. The
// orchestrator rejects toggles that arrive while a turn is still being
// handled, so mashing space is harmless.
func (a *App) toggleRecording() tea.Cmd {
	orchestrator := a.orchestrator
	return func() tea.Msg {
		if err := orchestrator.ToggleRecording(); err != nil {
			return toggleFailedMsg{err: err}
		}
		return nil
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// VIEW
// ═══════════════════════════════════════════════════════════════════════════════

// View implements tea.Model.
func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Loading..."
	}

	sections := []string{
		a.renderTitleBar(),
		a.transcriptView.View(),
		a.renderStatusBar(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTitleBar renders the title bar with the session identity.
func (a *App) renderTitleBar() string {
	title := a.styles.titleText.Render("Parley")
	session := a.styles.sessionText.Render(fmt.Sprintf("session %s", shortID(a.sessionID)))

	padding := a.width - lipgloss.Width(title) - lipgloss.Width(session) - 2
	if padding < 1 {
		padding = 1
	}

	bar := fmt.Sprintf("%s%s%s", title, strings.Repeat(" ", padding), session)
	return a.styles.titleBar.Width(a.width).Render(bar)
}

// renderStatusBar renders the state chip, any pending notice, and key help.
func (a *App) renderStatusBar() string {
	state := a.renderState()
	help := a.styles.help.Render("space: talk  q: quit")

	notice := ""
	if a.notice != "" {
		notice = a.styles.notice.Render(a.notice)
	}

	padding := a.width - lipgloss.Width(state) - lipgloss.Width(notice) - lipgloss.Width(help) - 6
	if padding < 1 {
		padding = 1
	}

	content := fmt.Sprintf("%s  %s%s%s", state, notice, strings.Repeat(" ", padding), help)
	return a.styles.statusBar.Width(a.width).Render(content)
}

func (a *App) renderState() string {
	switch a.state {
	case orchestration.StateRecording:
		return a.styles.stateRecording.Render("● recording")
	case orchestration.StateProcessing:
		return a.styles.stateBusy.Render(a.thinking.View() + "thinking")
	case orchestration.StatePlaying:
		return a.styles.stateBusy.Render("▶ speaking")
	default:
		return a.styles.stateIdle.Render("idle")
	}
}

// updateTranscriptContent re-renders the viewport content from the entries.
func (a *App) updateTranscriptContent() {
	width := a.transcriptView.Width - 2
	if width < 20 {
		width = 20
	}

	var sb strings.Builder
	for _, entry := range a.entries {
		label := a.styles.assistantLabel.Render("Assistant")
		if entry.Role == orchestration.RoleUser {
			label = a.styles.userLabel.Render("You")
		}

		sb.WriteString(" ")
		sb.WriteString(label)
		sb.WriteString("\n ")
		wrapped := wordwrap.String(entry.Text, width)
		sb.WriteString(a.styles.entryText.Render(strings.ReplaceAll(wrapped, "\n", "\n ")))
		sb.WriteString("\n\n")
	}

	a.transcriptView.SetContent(sb.String())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ═══════════════════════════════════════════════════════════════════════════════
// WIRING
// ═══════════════════════════════════════════════════════════════════════════════

// Run wires the configured clients into an orchestrator and drives it from
// the terminal UI. It blocks until the user quits.
func Run(cfg *config.Config) error {
	sessionPath, err := cfg.SessionFile()
	if err != nil {
		return err
	}
	identity, resumed, err := session.LoadOrCreate(sessionPath)
	if err != nil {
		return err
	}

	var agentOpts []agent.Option
	if cfg.Backend.TimeoutSeconds > 0 {
		agentOpts = append(agentOpts, agent.WithTimeout(time.Duration(cfg.Backend.TimeoutSeconds)*time.Second))
	}
	agentClient, err := agent.NewClient(cfg.Backend.URL, agentOpts...)
	if err != nil {
		return err
	}

	orchestratorOpts := []orchestration.OrchestratorOption{
		orchestration.WithAgentClient(agentClient),
		orchestration.WithSession(identity),
		orchestration.WithTurnTimeout(time.Duration(cfg.Backend.TimeoutSeconds) * time.Second),
	}

	switch cfg.Audio.Backend {
	case "portaudio":
		client, err := portaudio.NewClient(portaudio.DefaultBufferSize)
		if err != nil {
			return fmt.Errorf("failed to open audio backend: %w", err)
		}
		orchestratorOpts = append(orchestratorOpts,
			orchestration.WithCaptureClient(client),
			orchestration.WithPlaybackClient(client),
		)
	default:
		client, err := miniaudio.NewClient()
		if err != nil {
			return fmt.Errorf("failed to open audio backend: %w", err)
		}
		orchestratorOpts = append(orchestratorOpts,
			orchestration.WithCaptureClient(client),
			orchestration.WithPlaybackClient(client),
		)
	}

	var synthOpts []speech.Option
	if cfg.Audio.Voice != "" {
		synthOpts = append(synthOpts, speech.WithVoice(cfg.Audio.Voice))
	}
	if cfg.Audio.Rate > 0 {
		synthOpts = append(synthOpts, speech.WithRate(cfg.Audio.Rate))
	}
	// Hosts without a speech command still run; replies then degrade to
	// text when no audio is playable.
	if synthesizer, err := speech.NewCommandSynthesizer(synthOpts...); err == nil {
		orchestratorOpts = append(orchestratorOpts, orchestration.WithSpeechSynthesizer(synthesizer))
	}

	if resumed {
		orchestratorOpts = append(orchestratorOpts, orchestration.WithHistoryRestore())
	}

	orchestrator := orchestration.NewOrchestrator(orchestratorOpts...)
	defer orchestrator.Close()

	p := tea.NewProgram(New(orchestrator), tea.WithAltScreen())

	orchestrator.Orchestrate(context.Background(),
		orchestration.WithStateChangedCallback(func(from, to orchestration.State) {
			p.Send(stateChangedMsg{from: from, to: to})
		}),
		orchestration.WithTranscriptEntryCallback(func(entry orchestration.TranscriptEntry) {
			p.Send(transcriptEntryMsg{entry: entry})
		}),
		orchestration.WithCaptureDeniedCallback(func(guidance string) {
			p.Send(captureDeniedMsg{guidance: guidance})
		}),
		orchestration.WithTurnFailedCallback(func(reason string) {
			p.Send(turnFailedMsg{reason: reason})
		}),
		orchestration.WithPlaybackDegradedCallback(func(from, to orchestration.PlaybackSource, reason string) {
			p.Send(playbackDegradedMsg{from: from, to: to, reason: reason})
		}),
	)

	_, err = p.Run()
	return err
}
