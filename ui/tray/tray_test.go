package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHotkeyTooltip(t *testing.T) {
	assert.Equal(t, "Pixel Assist (last hotkey: send:/report)", hotkeyTooltip("Pixel Assist", "send:/report"))
}

func TestMirrorsBeforeReady(t *testing.T) {
	m := New(nil, "Pixel Assist", false, Controls{}, nil)
	assert.NotPanics(t, func() {
		m.SetAutomation(true)
		m.NotifyHotkey("toggle:chat")
	})
	assert.True(t, m.checked)
}
