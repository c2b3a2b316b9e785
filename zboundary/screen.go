// Package zboundary defines the presentation boundary between the CPU
// and whatever renders it: Screen/Input/Audio/Filesystem interfaces, plus
// the screen state (windows, colours, styles, fonts) the CPU mutates
// through opcodes like split_window, set_colour, and set_font.
package zboundary

import "fmt"

type TextStyle int

const (
	Roman        TextStyle = 0b0000_0001
	Bold         TextStyle = 0b0000_0010
	Italic       TextStyle = 0b0000_0100
	ReverseVideo TextStyle = 0b0000_1000
	FixedPitch   TextStyle = 0b0001_0000
)

type Color struct {
	r int
	g int
	b int
}

// NewColor constructs a Color from 8-bit RGB components.
func NewColor(r, g, b int) Color { return Color{r, g, b} }

func (c Color) ToHex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}

// RGB returns the component values.
func (c Color) RGB() (int, int, int) { return c.r, c.g, c.b }

// Font represents the available Z-machine fonts
type Font uint16

const (
	FontNormal     Font = 1
	FontPicture    Font = 2
	FontCharGraphs Font = 3
	FontFixedPitch Font = 4
)

// standardColors holds the fixed palette entries for z-machine colour
// numbers 2-12, indexed by (number-2). Numbers 10-12 (the grey shades)
// were only added in the 1.1 revision of the standard alongside
// set_true_colour and so are only meaningful to a v5+ story; a v3/v4
// story asking for one of those numbers gets back colour 1 (DEFAULT)
// instead of a shade it could never have had available.
var standardColors = [11]Color{
	{0, 0, 0},       // 2 BLACK
	{255, 0, 0},     // 3 RED
	{0, 255, 0},     // 4 GREEN
	{255, 255, 0},   // 5 YELLOW
	{0, 0, 255},     // 6 BLUE
	{255, 0, 255},   // 7 MAGENTA
	{0, 255, 255},   // 8 CYAN
	{255, 255, 255}, // 9 WHITE
	{192, 192, 192}, // 10 LIGHT GREY
	{128, 128, 128}, // 11 MEDIUM GREY
	{64, 64, 64},    // 12 DARK GREY
}

const firstGreyShadeColorNumber = 10

// ScreenModel - This is very deliberately a _not_ V6 screen model
type ScreenModel struct {
	// Version gates which extended colour-number range NewZMachineColor
	// honors; the grey shades (10-12) came in with the v5+ true-colour
	// opcodes and are meaningless on an earlier story.
	Version uint8

	LowerWindowActive bool
	CurrentFont       Font // TODO - Not actually changing the rendering code based on this at the moment

	UpperWindowHeight            int
	UpperWindowForeground        Color
	UpperWindowBackground        Color
	DefaultUpperWindowForeground Color
	DefaultUpperWindowBackground Color
	UpperWindowCursorX           int
	UpperWindowCursorY           int
	UpperWindowTextStyle         TextStyle

	DefaultLowerWindowForeground Color
	DefaultLowerWindowBackground Color
	LowerWindowForeground        Color
	LowerWindowBackground        Color
	LowerWindowTextStyle         TextStyle
}

// currentOrDefaultColor resolves the two colour-number sentinels shared
// by both windows: 0 ("current", the active window's existing colour)
// and 1 ("default", the window's colour at story start).
func (m *ScreenModel) currentOrDefaultColor(number uint16, isForeground bool) (Color, bool) {
	switch number {
	case 0:
		if m.LowerWindowActive {
			if isForeground {
				return m.LowerWindowForeground, true
			}
			return m.LowerWindowBackground, true
		}
		if isForeground {
			return m.UpperWindowForeground, true
		}
		return m.UpperWindowBackground, true
	case 1:
		if m.LowerWindowActive {
			if isForeground {
				return m.DefaultLowerWindowForeground, true
			}
			return m.DefaultLowerWindowBackground, true
		}
		if isForeground {
			return m.DefaultUpperWindowForeground, true
		}
		return m.DefaultUpperWindowBackground, true
	}
	return Color{}, false
}

// NewZMachineColor resolves a z-machine colour number (as used by
// set_colour and the colour half of set_true_colour's sentinels) against
// this model: 0/1 are the current/default sentinels, 2-12 index the
// standard palette, anything else is unassigned and reads back black.
func (m *ScreenModel) NewZMachineColor(number uint16, isForeground bool) Color {
	if c, ok := m.currentOrDefaultColor(number, isForeground); ok {
		return c
	}
	if number < 2 || int(number)-2 >= len(standardColors) {
		return Color{0, 0, 0}
	}
	if number >= firstGreyShadeColorNumber && m.Version < 5 {
		c, _ := m.currentOrDefaultColor(1, isForeground)
		return c
	}
	return standardColors[number-2]
}

// NewScreenModel constructs the initial screen state for a story of the
// given version: lower window active, upper window collapsed to zero
// height, and both windows set to the story's declared default colours.
func NewScreenModel(version uint8, foregroundColor Color, backgroundColor Color) ScreenModel {
	return ScreenModel{
		Version:                      version,
		LowerWindowActive:            true,
		CurrentFont:                  FontNormal,
		UpperWindowHeight:            0,
		DefaultUpperWindowForeground: foregroundColor,
		DefaultUpperWindowBackground: backgroundColor,
		UpperWindowForeground:        foregroundColor,
		UpperWindowBackground:        backgroundColor,
		UpperWindowCursorX:           1,
		UpperWindowCursorY:           1,
		UpperWindowTextStyle:         Roman,
		DefaultLowerWindowForeground: foregroundColor,
		DefaultLowerWindowBackground: backgroundColor,
		LowerWindowForeground:        foregroundColor,
		LowerWindowBackground:        backgroundColor,
		LowerWindowTextStyle:         Roman,
	}
}
