package ztui

import (
	"strings"
	"testing"
)

func TestCreateStatusLine(t *testing.T) {
	tests := []struct {
		name  string
		width int
		place string
		right string
		want  string
	}{
		{"pads between location and score", 20, "Kitchen", "2/4", "Kitchen" + strings.Repeat(" ", 10) + "2/4"},
		{"right side alone fills width", 5, "Attic", "12:30", "12:30"},
		{"long location truncates", 10, "The Great Underground Empire", "1/1", "The Gr 1/1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := createStatusLine(tc.width, tc.place, tc.right)
			if got != tc.want {
				t.Fatalf("createStatusLine(%d, %q, %q) = %q, want %q", tc.width, tc.place, tc.right, got, tc.want)
			}
		})
	}
}
