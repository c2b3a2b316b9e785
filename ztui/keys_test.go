package ztui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestKeyToZChar(t *testing.T) {
	tests := []struct {
		key  tea.KeyType
		want uint8
	}{
		{tea.KeyUp, 129},
		{tea.KeyDown, 130},
		{tea.KeyLeft, 131},
		{tea.KeyRight, 132},
		{tea.KeyEscape, 27},
		{tea.KeyEnter, 13},
		{tea.KeyBackspace, 8},
		{tea.KeyTab, 0},
	}

	for _, tc := range tests {
		got := keyToZChar(tea.KeyMsg{Type: tc.key})
		if got != tc.want {
			t.Errorf("keyToZChar(%v) = %d, want %d", tc.key, got, tc.want)
		}
	}
}

func TestIsValidTerminator(t *testing.T) {
	terminators := []uint8{13, 130}

	if isValidTerminator(0, terminators) {
		t.Error("a zero keycode should never be a valid terminator")
	}
	if !isValidTerminator(130, terminators) {
		t.Error("130 is in the terminator list and should be valid")
	}
	if isValidTerminator(27, terminators) {
		t.Error("27 is not in the terminator list and should not be valid")
	}
}
