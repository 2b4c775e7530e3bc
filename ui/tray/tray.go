// Package tray puts the automation switch and an exit entry into the system
// notification area.
package tray

import (
	"log/slog"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
)

// Controls are the actions the tray menu can trigger. Callbacks run on the
// tray goroutine.
type Controls struct {
	SetAutomation func(on bool)
	Quit          func()
}

// Manager owns the tray icon and menu.
type Manager struct {
	icon    []byte
	tooltip string
	ctl     Controls
	logger  *slog.Logger

	mu      sync.Mutex
	auto    *systray.MenuItem
	checked bool
	ready   bool

	quit     chan struct{}
	quitOnce sync.Once
}

// New creates the manager; nothing is shown until Run.
func New(icon []byte, tooltip string, automation bool, ctl Controls, logger *slog.Logger) *Manager {
	return &Manager{icon: icon, tooltip: tooltip, ctl: ctl, logger: logger, checked: automation, quit: make(chan struct{})}
}

// Run shows the tray icon and blocks until Stop or the Quit entry. The calling
// goroutine is locked to its thread because the menu window belongs to it.
func (m *Manager) Run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	systray.Run(m.onReady, m.onExit)
}

// Stop removes the tray icon.
func (m *Manager) Stop() { systray.Quit() }

// Done is closed when the user picks Quit.
func (m *Manager) Done() <-chan struct{} { return m.quit }

// SetAutomation mirrors the automation flag into the checkbox. It may be
// called before the menu exists.
func (m *Manager) SetAutomation(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checked = on
	if !m.ready {
		return
	}
	if on {
		m.auto.Check()
	} else {
		m.auto.Uncheck()
	}
}

// NotifyHotkey shows the last fired hotkey action in the tray tooltip.
func (m *Manager) NotifyHotkey(action string) {
	m.mu.Lock()
	ready := m.ready
	m.mu.Unlock()
	if ready {
		systray.SetTooltip(hotkeyTooltip(m.tooltip, action))
	}
}

func hotkeyTooltip(base, action string) string { return base + " (last hotkey: " + action + ")" }

func (m *Manager) onReady() {
	if len(m.icon) > 0 {
		systray.SetIcon(m.icon)
	}
	systray.SetTitle("Pixel Assist")
	systray.SetTooltip(m.tooltip)

	m.mu.Lock()
	m.auto = systray.AddMenuItemCheckbox("Automation", "Enable detection and overlays", m.checked)
	m.ready = true
	m.mu.Unlock()
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit Pixel Assist")

	go func() {
		for {
			select {
			case <-m.auto.ClickedCh:
				m.mu.Lock()
				next := !m.checked
				m.mu.Unlock()
				if m.ctl.SetAutomation != nil {
					m.ctl.SetAutomation(next)
				}
			case <-mQuit.ClickedCh:
				if m.logger != nil {
					m.logger.Info("quit requested from system tray")
				}
				m.quitOnce.Do(func() { close(m.quit) })
				if m.ctl.Quit != nil {
					m.ctl.Quit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (m *Manager) onExit() {
	if m.logger != nil {
		m.logger.Debug("system tray exited")
	}
}
