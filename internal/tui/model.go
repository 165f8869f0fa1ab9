package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/diogo/grinbergai/internal/assistant"
	"github.com/diogo/grinbergai/internal/chat"
	"github.com/diogo/grinbergai/internal/config"
	apierrors "github.com/diogo/grinbergai/internal/errors"
	"github.com/diogo/grinbergai/internal/history"
	"github.com/diogo/grinbergai/internal/logging"
	"github.com/diogo/grinbergai/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	turnDoneMsg struct {
		turn   *chat.Turn
		result chat.TurnResult
		err    error
	}
	conversationsLoadedMsg struct {
		entries []*history.Entry
		err     error
	}
	conversationCreatedMsg struct {
		entry *history.Entry
		err   error
	}
)

// ConversationList is the side panel's view of the history store
type ConversationList interface {
	List() ([]*history.Entry, error)
	Create(title string) (*history.Entry, error)
}

// ConversationTarget selects the entry finished turns are recorded into
type ConversationTarget interface {
	ID() string
	SetID(id string)
}

// StatusTracker carries the latest polled run status from the turn
// goroutine to the UI.
type StatusTracker struct {
	mu     sync.Mutex
	status assistant.RunStatus
}

// NewStatusTracker creates an empty tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{}
}

// Set records status; it is safe to pass as a chat status observer.
func (t *StatusTracker) Set(status assistant.RunStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// Get returns the last recorded status
func (t *StatusTracker) Get() assistant.RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Clear forgets the last status
func (t *StatusTracker) Clear() {
	t.Set("")
}

// Model represents the TUI state
type Model struct {
	driver  *chat.Driver
	store   *chat.Store
	persona config.Persona
	logger  *zap.Logger

	theme       string
	renderOpts  render.Options
	toggleTheme func(current string) (string, error)
	copyText    func(string) error

	conversations ConversationList
	target        ConversationTarget
	status        *StatusTracker

	// The in-flight turn is cancelled through cancelTurn. Completions
	// for any other turn are stale.
	baseCtx    context.Context
	turn       *chat.Turn
	cancelTurn context.CancelFunc

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	ready          bool
	animationFrame int
	notice         string

	// Side panel
	showPanel    bool
	panelEntries []*history.Entry
	panelCursor  int
	panelErr     error

	// Dimensions
	width  int
	height int
}

// Option configures a Model
type Option func(*Model)

// WithPersona sets the display copy
func WithPersona(p config.Persona) Option {
	return func(m *Model) {
		m.persona = p
	}
}

// WithTheme sets the initial UI theme
func WithTheme(theme string) Option {
	return func(m *Model) {
		m.theme = theme
	}
}

// WithRenderOptions sets the markdown options for assistant replies
func WithRenderOptions(opts render.Options) Option {
	return func(m *Model) {
		m.renderOpts = opts
	}
}

// WithThemeToggler replaces the function that persists a theme switch
func WithThemeToggler(fn func(current string) (string, error)) Option {
	return func(m *Model) {
		m.toggleTheme = fn
	}
}

// WithClipboard replaces the clipboard writer
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		m.copyText = fn
	}
}

// WithConversations enables the side panel
func WithConversations(list ConversationList, target ConversationTarget) Option {
	return func(m *Model) {
		m.conversations = list
		m.target = target
	}
}

// WithStatusTracker shows polled run statuses while loading
func WithStatusTracker(t *StatusTracker) Option {
	return func(m *Model) {
		m.status = t
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// WithContext sets the parent context of every turn
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.baseCtx = ctx
	}
}

// NewChatModel creates a new chat TUI model
func NewChatModel(driver *chat.Driver, opts ...Option) Model {
	m := Model{
		driver:      driver,
		store:       driver.Store(),
		persona:     config.DefaultPersona(),
		theme:       config.ThemeDark,
		renderOpts:  render.DefaultOptions(),
		toggleTheme: config.ToggleTheme,
		copyText:    clipboard.WriteAll,
		baseCtx:     context.Background(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.logger = logging.OrNop(m.logger)
	if m.status == nil {
		m.status = NewStatusTracker()
	}

	UpdateTheme(m.theme)
	m.renderOpts.Style = render.StyleFor(m.theme)

	ta := textarea.New()
	ta.Placeholder = m.persona.Placeholder
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()
	m.textarea = ta
	m.styleTextarea()

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle
	m.spinner = s

	return m
}

func (m *Model) styleTextarea() {
	m.textarea.FocusedStyle.CursorLine = lipgloss.NewStyle()
	m.textarea.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	m.textarea.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	m.textarea.BlurredStyle = m.textarea.FocusedStyle
}

// Theme returns the active UI theme
func (m Model) Theme() string {
	return m.theme
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

func (m Model) loading() bool {
	return m.store.Snapshot().IsLoading
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		if m.showPanel {
			return m.updatePanel(msg)
		}

		switch msg.String() {
		case "ctrl+c":
			m.cancelInFlight()
			return m, tea.Quit

		case "esc":
			if m.loading() {
				m.cancelInFlight()
				m.notice = "Cancelando..."
				return m, nil
			}
			return m, tea.Quit

		case "ctrl+r":
			m.resetConversation()
			return m, nil

		case "ctrl+t":
			m.switchTheme()
			return m, nil

		case "ctrl+y":
			m.copyLastReply()
			return m, nil

		case "ctrl+o":
			m.showPanel = true
			m.panelCursor = 0
			m.resize()
			return m, m.loadConversations()

		case "enter":
			return m.submit()
		}

	case turnDoneMsg:
		if msg.turn != m.turn {
			m.logger.Debug("dropping completion of a replaced turn")
			return m, nil
		}
		if m.cancelTurn != nil {
			m.cancelTurn()
		}
		m.turn, m.cancelTurn = nil, nil
		m.status.Clear()
		if msg.err != nil && errors.Is(msg.err, context.Canceled) {
			m.notice = "Respuesta cancelada."
		} else if m.notice == "Cancelando..." {
			m.notice = ""
		}
		m.updateViewport()
		m.viewport.GotoBottom()

	case conversationsLoadedMsg:
		m.panelErr = msg.err
		m.panelEntries = msg.entries
		if m.panelCursor >= len(m.panelEntries) {
			m.panelCursor = 0
		}

	case conversationCreatedMsg:
		if msg.err != nil {
			m.panelErr = msg.err
			return m, nil
		}
		m.resetConversation()
		if m.target != nil {
			m.target.SetID(msg.entry.ID)
		}
		m.notice = "Nueva conversación creada."
		return m, m.loadConversations()

	case spinner.TickMsg:
		if m.loading() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks
	if !m.loading() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit starts a turn with the textarea content
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.loading() {
		return m, nil
	}

	input := strings.TrimSpace(m.textarea.Value())
	switch input {
	case "exit", "quit", "/exit", "/quit":
		return m, tea.Quit
	}

	turn, err := m.driver.Begin(input)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return m, nil
	case errors.Is(err, chat.ErrTurnInFlight):
		m.notice = "Espera a que termine la respuesta anterior."
		return m, nil
	case err != nil:
		// The driver already recorded the error on the store
		m.textarea.Reset()
		m.updateViewport()
		return m, nil
	}

	m.textarea.Reset()
	m.notice = ""
	m.animationFrame = 0
	m.status.Clear()

	ctx, cancel := context.WithCancel(m.baseCtx)
	m.turn, m.cancelTurn = turn, cancel

	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		runTurn(ctx, turn),
		m.spinner.Tick,
		animationTick(),
	)
}

// runTurn runs the network part of a turn off the UI goroutine
func runTurn(ctx context.Context, turn *chat.Turn) tea.Cmd {
	return func() tea.Msg {
		result, err := turn.Run(ctx)
		return turnDoneMsg{turn: turn, result: result, err: err}
	}
}

func (m *Model) cancelInFlight() {
	if m.cancelTurn != nil {
		m.cancelTurn()
	}
}

func (m *Model) resetConversation() {
	m.cancelInFlight()
	m.turn, m.cancelTurn = nil, nil
	m.store.Reset()
	m.status.Clear()
	m.notice = ""
	m.textarea.Reset()
	m.updateViewport()
}

func (m *Model) switchTheme() {
	next, err := m.toggleTheme(m.theme)
	if err != nil {
		m.logger.Warn("failed to persist theme", zap.Error(err))
		next = config.OppositeTheme(m.theme)
		m.notice = "No se pudo guardar el tema."
	}

	m.theme = next
	UpdateTheme(next)
	m.renderOpts.Style = render.StyleFor(next)
	m.styleTextarea()
	m.spinner.Style = loadingStyle
	m.updateViewport()
}

func (m *Model) copyLastReply() {
	reply, ok := m.store.LastAssistant()
	if !ok {
		m.notice = "No hay respuesta para copiar."
		return
	}
	if err := m.copyText(reply.Content); err != nil {
		m.logger.Warn("failed to copy reply", zap.Error(err))
		m.notice = "No se pudo copiar al portapapeles."
		return
	}
	m.notice = "Respuesta copiada al portapapeles."
}

// mainWidth is the width left for the chat column
func (m Model) mainWidth() int {
	w := m.width
	if m.showPanel {
		w -= panelWidth
	}
	if w < 30 {
		w = 30
	}
	return w
}

func (m *Model) resize() {
	headerHeight := 3 // Header panel with border
	inputHeight := 6  // Input panel with border
	statusHeight := 2 // Notice and status bar
	padding := 2      // Messages panel border

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.mainWidth() - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 2)
	m.updateViewport()
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	main := m.renderMain(m.mainWidth() - 2)
	if !m.showPanel {
		return main
	}
	panel := m.renderPanel(panelWidth, lipgloss.Height(main))
	return lipgloss.JoinHorizontal(lipgloss.Top, panel, main)
}

func (m Model) renderMain(contentWidth int) string {
	state := m.store.Snapshot()
	var sections []string

	// Header
	themeLabel := "tema oscuro"
	if m.theme == config.ThemeLight {
		themeLabel = "tema claro"
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ "+m.persona.Name),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(themeLabel),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Messages
	var messagesContent string
	if len(state.Messages) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Error
	if state.Err != nil {
		sections = append(sections, m.formatError(state.Err, contentWidth))
	}

	// Input
	var inputContent string
	if state.IsLoading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render(m.persona.UserLabel),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	// Notice and status bar
	sections = append(sections, noticeStyle.Render(m.notice))
	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the empty state
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("✦")
	title := welcomeTitleStyle.Width(width).Render(m.persona.WelcomeTitle)
	body := welcomeStyle.Width(width).Render(m.persona.WelcomeBody)

	content := lipgloss.JoinVertical(lipgloss.Center, icon, "", title, "", body)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders the animated "thinking" indicator
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	frame := m.animationFrame

	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[frame%len(chars)])

	var dots strings.Builder
	numDots := (frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + m.persona.ThinkingText + " ")
	line := fmt.Sprintf("%s %s%s", spin, text, dots.String())
	if label := statusLabel(m.status.Get()); label != "" {
		line += hintStyle.Render("  (" + label + ")")
	}
	return line
}

// statusLabel names a pending run status for display
func statusLabel(status assistant.RunStatus) string {
	switch status {
	case assistant.RunStatusQueued:
		return "en cola"
	case assistant.RunStatusInProgress:
		return "procesando"
	default:
		return ""
	}
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Enviar"},
		{"Ctrl+R", "Reiniciar"},
		{"Ctrl+T", "Tema"},
		{"Ctrl+Y", "Copiar"},
		{"Ctrl+O", "Conversaciones"},
		{"Esc", "Cancelar/Salir"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport refreshes the viewport content from the store
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	state := m.store.Snapshot()
	width := m.viewport.Width
	bubbleWidth := width - 2
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	var content strings.Builder
	for i, msg := range state.Messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == chat.RoleUser {
			maxWidth := bubbleWidth * 3 / 4
			bubbleW := lipgloss.Width(msg.Content) + 2
			if bubbleW > maxWidth {
				bubbleW = maxWidth
			}
			label := userLabelStyle.Render(m.persona.UserLabel)
			bubble := userBubbleStyle.Width(bubbleW).Render(msg.Content)
			block := lipgloss.JoinVertical(lipgloss.Right, label, bubble)
			content.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Right, block))
		} else {
			label := assistantLabelStyle.Render("✦ " + m.persona.AssistantLabel)
			rendered := render.MarkdownOrPlain(msg.Content, m.renderOpts.WithWidth(bubbleWidth-4))
			rendered = strings.TrimRight(rendered, "\n")
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(rendered)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// formatError renders the error panel with a message per error variant
func (m Model) formatError(err error, width int) string {
	if err == nil {
		return ""
	}

	lines := []string{"⚠ " + apierrors.UserMessage(err)}

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		lines = append(lines, errorDetailStyle.Render(fmt.Sprintf("HTTP Status: %d", status)))
	}
	var runErr *apierrors.RunFailedError
	if errors.As(err, &runErr) && runErr.Message != "" {
		lines = append(lines, errorDetailStyle.Render(runErr.Message))
	}

	return errorStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// RunChat starts the chat TUI and cancels any in-flight turn on exit
func RunChat(m Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.cancelInFlight()
	}
	return err
}
