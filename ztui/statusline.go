package ztui

import (
	"fmt"
	"strings"
)

// createStatusLine renders the v1-3 status bar: the current location on
// the left and the pre-formatted score/moves-or-time string zcpu's
// readLine builds on the right, truncated to fit width.
func createStatusLine(width int, placeName string, rightHandSide string) string {
	if len(rightHandSide) >= width {
		return rightHandSide[:width]
	}

	if len(placeName)+len(rightHandSide)+1 >= width {
		return fmt.Sprintf("%s %s", placeName[:width-len(rightHandSide)-1], rightHandSide)
	}

	numberSpaces := width - len(placeName) - len(rightHandSide)
	return fmt.Sprintf("%s%s%s", placeName, strings.Repeat(" ", numberSpaces), rightHandSide)
}
