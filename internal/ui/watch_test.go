package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/apled/internal/render"
)

// fakeController is an in-memory device.
type fakeController struct {
	mu    sync.Mutex
	on    bool
	calls []string
	err   error
}

func (f *fakeController) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeController) Status(context.Context) (*render.StatusDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("status")
	if f.err != nil {
		return nil, f.err
	}
	return &render.StatusDocument{LEDState: f.on, ChipModel: "fake", Cores: 1, Features: "none"}, nil
}

func (f *fakeController) Engage(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("engage")
	f.on = true
	return f.on, f.err
}

func (f *fakeController) Disengage(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("disengage")
	f.on = false
	return f.on, f.err
}

func (f *fakeController) Toggle(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("toggle")
	f.on = !f.on
	return f.on, f.err
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// settle runs the initial refresh so the model is idle.
func settle(t *testing.T, ctl *fakeController) WatchModel {
	t.Helper()
	m := NewWatchModel(ctl, "http://apled.local", time.Hour, time.Second)
	next, _ := m.Update(m.run(actionRefresh)())
	return next.(WatchModel)
}

func TestWatchInitialRefresh(t *testing.T) {
	ctl := &fakeController{}
	m := NewWatchModel(ctl, "http://apled.local", time.Hour, time.Second)
	if !m.busy {
		t.Error("model should be busy until the first refresh lands")
	}

	m = settle(t, ctl)
	if m.busy {
		t.Error("model should be idle after the refresh")
	}
	if m.Doc() == nil || m.Doc().LEDState {
		t.Errorf("Doc() = %+v, want LED off", m.Doc())
	}
}

func TestWatchKeysDriveDevice(t *testing.T) {
	tests := []struct {
		key    rune
		call   string
		wantOn bool
	}{
		{'e', "engage", true},
		{'t', "toggle", true},
		{'d', "disengage", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			ctl := &fakeController{}
			m := settle(t, ctl)

			next, cmd := m.Update(keyPress(tt.key))
			m = next.(WatchModel)
			if !m.busy || cmd == nil {
				t.Fatal("key press should start a request")
			}

			next, _ = m.Update(cmd())
			m = next.(WatchModel)
			if m.Doc().LEDState != tt.wantOn {
				t.Errorf("LEDState = %v, want %v", m.Doc().LEDState, tt.wantOn)
			}

			want := []string{"status", tt.call, "status"}
			if strings.Join(ctl.calls, ",") != strings.Join(want, ",") {
				t.Errorf("calls = %v, want %v", ctl.calls, want)
			}
		})
	}
}

func TestWatchIgnoresKeysWhileBusy(t *testing.T) {
	ctl := &fakeController{}
	m := settle(t, ctl)

	next, first := m.Update(keyPress('t'))
	m = next.(WatchModel)
	_, second := m.Update(keyPress('t'))

	if first == nil {
		t.Fatal("first key should start a request")
	}
	if second != nil {
		t.Error("second key while busy should be ignored")
	}
}

func TestWatchQuit(t *testing.T) {
	m := settle(t, &fakeController{})
	_, cmd := m.Update(keyPress('q'))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestWatchShowsErrors(t *testing.T) {
	ctl := &fakeController{}
	m := settle(t, ctl)

	ctl.err = errors.New("device unreachable")
	next, cmd := m.Update(keyPress('e'))
	m = next.(WatchModel)
	next, _ = m.Update(cmd())
	m = next.(WatchModel)

	if m.Err() == nil {
		t.Fatal("Err() should report the failure")
	}
	if !strings.Contains(m.View(), "device unreachable") {
		t.Error("View() should show the error")
	}
	if m.Doc() == nil {
		t.Error("previous status should be kept on error")
	}
}

func TestWatchTickRefreshes(t *testing.T) {
	ctl := &fakeController{}
	m := settle(t, ctl)

	next, cmd := m.Update(tickMsg(time.Now()))
	if !next.(WatchModel).busy {
		t.Error("tick should start a refresh")
	}
	if cmd == nil {
		t.Error("tick should schedule the refresh and the next tick")
	}
}

func TestWatchViewShowsState(t *testing.T) {
	m := settle(t, &fakeController{on: true})
	view := m.View()
	for _, want := range []string{"http://apled.local", "ON", "toggle"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}
