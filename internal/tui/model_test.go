package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/grinbergai/internal/assistant"
	"github.com/diogo/grinbergai/internal/chat"
	"github.com/diogo/grinbergai/internal/config"
	apierrors "github.com/diogo/grinbergai/internal/errors"
	"github.com/diogo/grinbergai/internal/render"
)

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// findMsg runs cmd, expanding batches, and returns the first message of type T.
func findMsg[T any](t *testing.T, cmd tea.Cmd) (T, bool) {
	t.Helper()
	var zero T
	if cmd == nil {
		return zero, false
	}
	switch msg := cmd().(type) {
	case T:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if found, ok := findMsg[T](t, c); ok {
				return found, true
			}
		}
	}
	return zero, false
}

func newTestModel(t *testing.T, svc assistant.Service, opts ...Option) Model {
	t.Helper()
	driver := chat.NewDriver(chat.NewStore(), svc, chat.WithPollInterval(time.Millisecond))
	return sized(NewChatModel(driver, opts...))
}

func sized(m Model) Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestNewChatModel_Defaults(t *testing.T) {
	m := newTestModel(t, assistant.NewMockService("hola"))

	if m.Theme() != config.ThemeDark {
		t.Errorf("Theme() = %s, want dark", m.Theme())
	}
	if m.renderOpts.Style != render.StyleDark {
		t.Errorf("render style = %s", m.renderOpts.Style)
	}
	if m.textarea.Placeholder != config.DefaultPersona().Placeholder {
		t.Errorf("Placeholder = %q", m.textarea.Placeholder)
	}
	if !m.ready {
		t.Error("model not ready after WindowSizeMsg")
	}
}

func TestModel_ViewBeforeResize(t *testing.T) {
	driver := chat.NewDriver(chat.NewStore(), assistant.NewMockService("x"))
	m := NewChatModel(driver)
	if !strings.Contains(m.View(), "Initializing") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestModel_WelcomeView(t *testing.T) {
	persona := config.DefaultPersona()
	persona.WelcomeTitle = "Bienvenida de prueba"
	m := newTestModel(t, assistant.NewMockService("x"), WithPersona(persona))

	view := m.View()
	if !strings.Contains(view, "Bienvenida de prueba") {
		t.Error("welcome title missing from empty chat view")
	}
	if !strings.Contains(view, "Ctrl+T") {
		t.Error("status bar missing")
	}
}

func TestModel_SendTurn(t *testing.T) {
	svc := assistant.NewMockService("¡Hola! ¿En qué puedo ayudarte?",
		assistant.RunStatusQueued, assistant.RunStatusCompleted)
	m := newTestModel(t, svc)

	m.textarea.SetValue("  hola  ")
	m, cmd := press(m, key(tea.KeyEnter))

	// The user message is shown before the network exchange runs
	state := m.store.Snapshot()
	if len(state.Messages) != 1 || state.Messages[0].Content != "hola" || !state.IsLoading {
		t.Fatalf("state after enter = %+v", state)
	}
	if m.textarea.Value() != "" {
		t.Errorf("textarea not cleared: %q", m.textarea.Value())
	}
	if !strings.Contains(m.View(), "Jacobo está pensando") {
		t.Error("loading animation missing while the turn runs")
	}
	if len(svc.CallLog()) != 0 {
		t.Errorf("network called before the command ran: %v", svc.CallLog())
	}

	done, ok := findMsg[turnDoneMsg](t, cmd)
	if !ok {
		t.Fatal("enter did not schedule the turn")
	}
	if done.err != nil {
		t.Fatalf("turn error = %v", done.err)
	}

	updated, _ := m.Update(done)
	m = updated.(Model)

	state = m.store.Snapshot()
	if len(state.Messages) != 2 || state.Messages[1].Role != chat.RoleAssistant {
		t.Fatalf("messages = %+v", state.Messages)
	}
	if state.IsLoading {
		t.Error("still loading after turnDoneMsg")
	}
	if m.cancelTurn != nil {
		t.Error("cancel func kept after the turn finished")
	}
	if !strings.Contains(m.viewport.View(), "Tú") {
		t.Error("user label missing from viewport")
	}
}

func TestModel_EnterIgnoredWhileLoading(t *testing.T) {
	svc := assistant.NewMockService("x", assistant.RunStatusInProgress)
	m := newTestModel(t, svc)

	m.textarea.SetValue("uno")
	m, first := press(m, key(tea.KeyEnter))
	m.textarea.SetValue("dos")
	m, cmd := press(m, key(tea.KeyEnter))
	if cmd != nil {
		t.Error("second enter scheduled another turn")
	}
	if n := m.store.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}

	m.cancelInFlight()
	if done, ok := findMsg[turnDoneMsg](t, first); !ok || !errors.Is(done.err, context.Canceled) {
		t.Errorf("cancelled turn = %+v", done)
	}
}

func TestModel_ExitWords(t *testing.T) {
	for _, word := range []string{"exit", "quit", "/exit", "/quit"} {
		t.Run(word, func(t *testing.T) {
			m := newTestModel(t, assistant.NewMockService("x"))
			m.textarea.SetValue(word)

			m, cmd := press(m, key(tea.KeyEnter))
			if _, ok := findMsg[tea.QuitMsg](t, cmd); !ok {
				t.Error("exit word did not quit")
			}
			if m.store.Len() != 0 {
				t.Error("exit word was sent as a message")
			}
		})
	}
}

func TestModel_EmptyInput(t *testing.T) {
	svc := assistant.NewMockService("x")
	m := newTestModel(t, svc)
	m.textarea.SetValue("   ")

	m, cmd := press(m, key(tea.KeyEnter))
	if cmd != nil {
		t.Error("empty input scheduled a command")
	}
	if m.store.Len() != 0 || len(svc.CallLog()) != 0 {
		t.Error("empty input reached the store or service")
	}
}

func TestModel_InitError(t *testing.T) {
	initErr := apierrors.NewConfigError("OPENAI_API_KEY", "missing")
	driver := chat.NewDriver(chat.NewStore(), nil, chat.WithInitError(initErr))
	m := sized(NewChatModel(driver))

	m.textarea.SetValue("hola")
	m, cmd := press(m, key(tea.KeyEnter))
	if cmd != nil {
		t.Error("init error still scheduled a turn")
	}

	state := m.store.Snapshot()
	if len(state.Messages) != 0 || state.Err == nil {
		t.Fatalf("state = %+v", state)
	}
	if !strings.Contains(m.View(), "Assistant client not initialized") {
		t.Error("error panel missing from view")
	}
}

func TestModel_EscCancelsTurn(t *testing.T) {
	svc := assistant.NewMockService("x", assistant.RunStatusInProgress)
	m := newTestModel(t, svc)

	m.textarea.SetValue("hola")
	m, cmd := press(m, key(tea.KeyEnter))

	m, quit := press(m, key(tea.KeyEsc))
	if _, ok := findMsg[tea.QuitMsg](t, quit); ok {
		t.Fatal("esc quit while a turn was loading")
	}
	if m.notice != "Cancelando..." {
		t.Errorf("notice = %q", m.notice)
	}

	done, ok := findMsg[turnDoneMsg](t, cmd)
	if !ok {
		t.Fatal("turn command missing")
	}
	updated, _ := m.Update(done)
	m = updated.(Model)

	if m.notice != "Respuesta cancelada." {
		t.Errorf("notice = %q", m.notice)
	}
	state := m.store.Snapshot()
	if state.IsLoading || state.ErrorText() != "Request cancelled." {
		t.Errorf("state = %+v, ErrorText = %q", state, state.ErrorText())
	}
	if !svc.WasCancelled() {
		t.Error("run was not cancelled on the server")
	}
}

func TestModel_EscQuitsWhenIdle(t *testing.T) {
	m := newTestModel(t, assistant.NewMockService("x"))
	_, cmd := press(m, key(tea.KeyEsc))
	if _, ok := findMsg[tea.QuitMsg](t, cmd); !ok {
		t.Error("esc did not quit when idle")
	}
}

func TestModel_ResetConversation(t *testing.T) {
	m := newTestModel(t, assistant.NewMockService("x"))
	m.store.Append(chat.Message{Role: chat.RoleUser, Content: "hola"})
	m.store.Append(chat.Message{Role: chat.RoleAssistant, Content: "¡Hola!"})
	m.notice = "algo"

	m, _ = press(m, key(tea.KeyCtrlR))
	if m.store.Len() != 0 {
		t.Errorf("Len() = %d after reset", m.store.Len())
	}
	if m.notice != "" {
		t.Errorf("notice = %q after reset", m.notice)
	}
}

func TestModel_ResetDuringTurnKeepsNextTurn(t *testing.T) {
	svc := assistant.NewMockService("¡Hola!", assistant.RunStatusInProgress, assistant.RunStatusCompleted)
	m := newTestModel(t, svc)

	m.textarea.SetValue("uno")
	m, first := press(m, key(tea.KeyEnter))
	m, _ = press(m, key(tea.KeyCtrlR))

	stale, ok := findMsg[turnDoneMsg](t, first)
	if !ok {
		t.Fatal("first turn command missing")
	}

	m.textarea.SetValue("dos")
	m, second := press(m, key(tea.KeyEnter))
	if second == nil {
		t.Fatal("second turn not scheduled")
	}

	// The first turn finishes after the second one started
	updated, _ := m.Update(stale)
	m = updated.(Model)
	if m.cancelTurn == nil {
		t.Fatal("stale completion released the running turn")
	}

	done, ok := findMsg[turnDoneMsg](t, second)
	if !ok {
		t.Fatal("second turn command missing")
	}
	if done.err != nil {
		t.Fatalf("second turn error = %v", done.err)
	}
	updated, _ = m.Update(done)
	m = updated.(Model)

	state := m.store.Snapshot()
	if len(state.Messages) != 2 || state.Messages[0].Content != "dos" || state.Messages[1].Content != "¡Hola!" {
		t.Fatalf("messages = %+v", state.Messages)
	}
	if state.IsLoading || state.Err != nil {
		t.Errorf("state = %+v", state)
	}
	if m.cancelTurn != nil || m.notice != "" {
		t.Errorf("cancelTurn set = %v, notice = %q", m.cancelTurn != nil, m.notice)
	}
}

func TestModel_ToggleTheme(t *testing.T) {
	tests := []struct {
		name       string
		toggleErr  error
		wantNotice string
	}{
		{"persisted", nil, ""},
		{"save fails", errors.New("read-only"), "No se pudo guardar el tema."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCurrent string
			toggler := func(current string) (string, error) {
				gotCurrent = current
				if tt.toggleErr != nil {
					return current, tt.toggleErr
				}
				return config.OppositeTheme(current), nil
			}
			m := newTestModel(t, assistant.NewMockService("x"), WithThemeToggler(toggler))
			t.Cleanup(func() { UpdateTheme(config.ThemeDark) })

			m, _ = press(m, key(tea.KeyCtrlT))

			if gotCurrent != config.ThemeDark {
				t.Errorf("toggler got %q", gotCurrent)
			}
			if m.Theme() != config.ThemeLight {
				t.Errorf("Theme() = %s, want light", m.Theme())
			}
			if m.renderOpts.Style != render.StyleLight {
				t.Errorf("render style = %s", m.renderOpts.Style)
			}
			if colorText != render.LightTheme.Text {
				t.Error("styles not rebuilt for the light theme")
			}
			if m.notice != tt.wantNotice {
				t.Errorf("notice = %q, want %q", m.notice, tt.wantNotice)
			}
		})
	}
}

func TestModel_CopyLastReply(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		copyErr    error
		wantCopied string
		wantNotice string
	}{
		{"copies reply", "¡Hola!", nil, "¡Hola!", "Respuesta copiada al portapapeles."},
		{"no reply", "", nil, "", "No hay respuesta para copiar."},
		{"clipboard error", "¡Hola!", errors.New("no display"), "¡Hola!", "No se pudo copiar al portapapeles."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var copied string
			clip := func(s string) error {
				copied = s
				return tt.copyErr
			}
			m := newTestModel(t, assistant.NewMockService("x"), WithClipboard(clip))
			m.store.Append(chat.Message{Role: chat.RoleUser, Content: "hola"})
			if tt.reply != "" {
				m.store.Append(chat.Message{Role: chat.RoleAssistant, Content: tt.reply})
			}

			m, _ = press(m, key(tea.KeyCtrlY))

			if copied != tt.wantCopied {
				t.Errorf("copied %q, want %q", copied, tt.wantCopied)
			}
			if m.notice != tt.wantNotice {
				t.Errorf("notice = %q, want %q", m.notice, tt.wantNotice)
			}
		})
	}
}

func TestModel_FormatError(t *testing.T) {
	m := newTestModel(t, assistant.NewMockService("x"))

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"api", apierrors.NewAPIError(500, "runs", "boom"), []string{"HTTP Status: 500"}},
		{"run failed", apierrors.NewRunFailedError("run_1", "failed", "server_error", "model overloaded"), []string{"model overloaded"}},
		{"timeout", apierrors.NewTimeoutError("slow"), []string{"took too long"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := m.formatError(tt.err, 80)
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("formatError() = %q, missing %q", out, want)
				}
			}
		})
	}

	if m.formatError(nil, 80) != "" {
		t.Error("formatError(nil) not empty")
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status assistant.RunStatus
		want   string
	}{
		{assistant.RunStatusQueued, "en cola"},
		{assistant.RunStatusInProgress, "procesando"},
		{assistant.RunStatusCompleted, ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := statusLabel(tt.status); got != tt.want {
			t.Errorf("statusLabel(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusTracker(t *testing.T) {
	tracker := NewStatusTracker()
	if tracker.Get() != "" {
		t.Errorf("new tracker = %q", tracker.Get())
	}
	tracker.Set(assistant.RunStatusQueued)
	if tracker.Get() != assistant.RunStatusQueued {
		t.Errorf("Get() = %q", tracker.Get())
	}
	tracker.Clear()
	if tracker.Get() != "" {
		t.Errorf("after Clear = %q", tracker.Get())
	}
}

func TestModel_LoadingShowsRunStatus(t *testing.T) {
	tracker := NewStatusTracker()
	m := newTestModel(t, assistant.NewMockService("x", assistant.RunStatusInProgress), WithStatusTracker(tracker))

	m.textarea.SetValue("hola")
	m, cmd := press(m, key(tea.KeyEnter))
	tracker.Set(assistant.RunStatusInProgress)

	if !strings.Contains(m.renderLoadingAnimation(), "procesando") {
		t.Error("run status missing from loading line")
	}

	m.cancelInFlight()
	findMsg[turnDoneMsg](t, cmd)
}

func TestFormatErrorStandalone(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config", apierrors.NewConfigError("OPENAI_API_KEY", "missing"), "OPENAI_API_KEY and ASSISTANT_ID"},
		{"auth", apierrors.NewAuthError("bad key"), "has access to the assistant"},
		{"timeout", apierrors.NewTimeoutError("slow"), "run_timeout_seconds"},
		{"network", apierrors.NewNetworkError("runs", errors.New("refused")), "internet connection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatError(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("FormatError() = %q, missing %q", got, tt.want)
			}
		})
	}

	if FormatError(nil) != "" {
		t.Error("FormatError(nil) not empty")
	}
}
