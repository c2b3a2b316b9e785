package ztui

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davetcode/goz/zboundary"
	"github.com/davetcode/goz/zcpu"
	"github.com/muesli/reflow/wordwrap"
)

var baseAppStyle = lipgloss.NewStyle()

type runningStoryState int

const (
	appRunning runningStoryState = iota
	appWaitingForInput
	appWaitingForCharacter
)

type doneMsg struct{ err error }

func runInterpreter(cpu *zcpu.CPU) tea.Cmd {
	return func() tea.Msg {
		err := cpu.Run(context.Background())
		return doneMsg{err: err}
	}
}

func waitForEvent(events <-chan any) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// model is the bubbletea front end for one running story, grounded on the
// teacher's runStoryModel: it owns the rendered upper/lower window text
// and reacts to the events a Boundary forwards from the CPU's goroutine.
type model struct {
	cpu       *zcpu.CPU
	boundary  *Boundary
	storyName string

	statusLocation string
	statusRight    string

	lowerWindowActive        bool
	lowerWindowTextPreStyled string
	upperWindowText          []string
	upperWindowStyle         [][]lipgloss.Style
	upperWindowHeight        int
	upperWindowCursorX       int
	upperWindowCursorY       int

	lowerFg, lowerBg zboundary.Color
	upperFg, upperBg zboundary.Color

	appState         runningStoryState
	validTerminators []uint8
	inputResponse    chan lineResult
	charResponse     chan uint8
	inputBox         textinput.Model

	width, height int

	runtimeError string
}

// NewModel wires a freshly constructed CPU to a bubbletea front end:
// cpu.Screen/Input/Audio must already be set to boundary and an Audio{}.
func NewModel(cpu *zcpu.CPU, boundary *Boundary, storyName string) tea.Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 512
	ti.Prompt = ""

	white := zboundary.NewColor(255, 255, 255)
	black := zboundary.NewColor(0, 0, 0)

	return model{
		cpu:               cpu,
		boundary:          boundary,
		storyName:         storyName,
		lowerWindowActive: true,
		lowerFg:           white,
		lowerBg:           black,
		upperFg:           white,
		upperBg:           black,
		appState:          appRunning,
		validTerminators:  []uint8{13},
		inputBox:          ti,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.boundary.events),
		runInterpreter(m.cpu),
		tea.Sequence(
			tea.SetWindowTitle(m.storyName),
			tea.WindowSize(),
		),
	)
}

// colourStyle resolves a lipgloss style for one Print call: the text-style
// bits travel with the call itself (zcpu reads them off its mirrored
// ScreenModel at print time), colours come from the window's last
// SetColour.
func colourStyle(style zboundary.TextStyle, fg, bg zboundary.Color) lipgloss.Style {
	return baseAppStyle.
		Foreground(lipgloss.Color(fg.ToHex())).
		Background(lipgloss.Color(bg.ToHex())).
		Bold(style&zboundary.Bold == zboundary.Bold).
		Italic(style&zboundary.Italic == zboundary.Italic).
		Reverse(style&zboundary.ReverseVideo == zboundary.ReverseVideo)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.boundary.setSize(msg.Width, msg.Height)

		if m.height < len(m.upperWindowText) {
			m.upperWindowText = m.upperWindowText[:m.height]
			m.upperWindowStyle = m.upperWindowStyle[:m.height]
		} else {
			for range int(math.Min(float64(m.height-len(m.upperWindowText)), float64(m.upperWindowHeight))) {
				m.upperWindowText = append(m.upperWindowText, strings.Repeat(" ", m.width))
				m.upperWindowStyle = append(m.upperWindowStyle, slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width))
			}
		}
		for ix, row := range m.upperWindowText {
			if m.width < len(row) {
				m.upperWindowText[ix] = row[:m.width]
				m.upperWindowStyle[ix] = m.upperWindowStyle[ix][:m.width]
			} else if m.width > len(row) {
				for ii := len(row); ii < m.width; ii++ {
					m.upperWindowText[ix] += " "
					m.upperWindowStyle[ix] = append(m.upperWindowStyle[ix], baseAppStyle)
				}
			}
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.appState {
		case appWaitingForCharacter:
			m.appState = appRunning
			if len(msg.Runes) > 0 {
				m.charResponse <- uint8(msg.Runes[0])
			} else {
				m.charResponse <- keyToZChar(msg)
			}
			return m, nil
		case appWaitingForInput:
			keyCode := keyToZChar(msg)
			if msg.Type == tea.KeyEnter || isValidTerminator(keyCode, m.validTerminators) {
				m.appState = appRunning
				m.lowerWindowTextPreStyled += m.inputBox.Value() + "\n"
				term := uint8(13)
				if msg.Type != tea.KeyEnter {
					term = keyCode
				}
				m.inputResponse <- lineResult{Text: m.inputBox.Value(), Term: term}
				m.inputBox.SetValue("")
				return m, nil
			}
		}

	case printMsg:
		if m.lowerWindowActive {
			style := colourStyle(msg.Style, m.lowerFg, m.lowerBg)
			lines := strings.Split(msg.Text, "\n")
			for i, line := range lines {
				lines[i] = style.Render(line)
			}
			m.lowerWindowTextPreStyled += strings.Join(lines, "\n")
		} else {
			m.writeUpperWindow(msg.Text, colourStyle(msg.Style, m.upperFg, m.upperBg))
		}
		return m, waitForEvent(m.boundary.events)

	case inputRequestMsg:
		m.appState = appWaitingForInput
		m.validTerminators = msg.Term
		m.inputResponse = msg.Response
		m.inputBox.SetValue(msg.Preload)
		m.inputBox.CharLimit = msg.MaxLength
		return m, waitForEvent(m.boundary.events)

	case charRequestMsg:
		m.appState = appWaitingForCharacter
		m.charResponse = msg.Response
		return m, waitForEvent(m.boundary.events)

	case statusMsg:
		m.statusLocation = msg.Location
		m.statusRight = msg.Right
		return m, waitForEvent(m.boundary.events)

	case setColourMsg:
		if m.lowerWindowActive {
			m.lowerFg, m.lowerBg = msg.Foreground, msg.Background
		} else {
			m.upperFg, m.upperBg = msg.Foreground, msg.Background
		}
		return m, waitForEvent(m.boundary.events)

	case setBufferModeMsg:
		return m, waitForEvent(m.boundary.events)

	case splitWindowMsg:
		m.upperWindowHeight = int(msg)
		if len(m.upperWindowText) != m.upperWindowHeight {
			if len(m.upperWindowText) > m.upperWindowHeight {
				m.upperWindowText = m.upperWindowText[:m.upperWindowHeight]
				m.upperWindowStyle = m.upperWindowStyle[:m.upperWindowHeight]
			} else {
				for range m.upperWindowHeight - len(m.upperWindowText) {
					m.upperWindowText = append(m.upperWindowText, strings.Repeat(" ", m.width))
					m.upperWindowStyle = append(m.upperWindowStyle, slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width))
				}
			}
		}
		return m, waitForEvent(m.boundary.events)

	case setWindowMsg:
		m.lowerWindowActive = int(msg) == 0
		return m, waitForEvent(m.boundary.events)

	case setCursorMsg:
		if !m.lowerWindowActive {
			m.upperWindowCursorY = msg.Line
			m.upperWindowCursorX = msg.Column
		}
		return m, waitForEvent(m.boundary.events)

	case eraseLineMsg:
		if !m.lowerWindowActive {
			line, start := m.upperWindowCursorY-1, m.upperWindowCursorX-1
			if line >= 0 && line < len(m.upperWindowText) && start >= 0 && start < len(m.upperWindowText[line]) {
				row := m.upperWindowText[line]
				m.upperWindowText[line] = row[:start] + strings.Repeat(" ", len(row)-start)
			}
		}
		return m, waitForEvent(m.boundary.events)

	case eraseWindowMsg:
		switch int(msg) {
		case -2, -1:
			m.lowerWindowTextPreStyled = ""
			m.clearUpperWindow(len(m.upperWindowText))
			if int(msg) == -1 {
				m.upperWindowHeight = 0
			}
		case 0:
			m.lowerWindowTextPreStyled = ""
		case 1:
			m.clearUpperWindow(m.upperWindowHeight)
		default:
			m.runtimeError = fmt.Sprintf("unexpected erase_window value: %d", int(msg))
			return m, tea.Quit
		}
		return m, waitForEvent(m.boundary.events)

	case doneMsg:
		if msg.err != nil {
			m.runtimeError = msg.err.Error()
		}
		return m, tea.Quit
	}

	if m.appState == appWaitingForInput {
		m.inputBox, cmd = m.inputBox.Update(msg)
	}
	return m, cmd
}

func (m *model) clearUpperWindow(n int) {
	for row := 0; row < n && row < len(m.upperWindowText); row++ {
		m.upperWindowText[row] = strings.Repeat(" ", m.width)
		m.upperWindowStyle[row] = slices.Repeat([]lipgloss.Style{baseAppStyle}, m.width)
	}
}

// writeUpperWindow overwrites text into the upper window at the current
// cursor, splitting on newlines; the upper window never scrolls or wraps.
func (m *model) writeUpperWindow(text string, style lipgloss.Style) {
	segments := strings.Split(text, "\n")
	cursorX, cursorY := m.upperWindowCursorX-1, m.upperWindowCursorY-1

	for segIdx, segment := range segments {
		if cursorY >= 0 && cursorY < len(m.upperWindowText) {
			row := m.upperWindowText[cursorY]
			if cursorY < len(m.upperWindowStyle) {
				for i := 0; i < len(segment) && cursorX+i < len(m.upperWindowStyle[cursorY]); i++ {
					m.upperWindowStyle[cursorY][cursorX+i] = style
				}
			}
			if cursorX < len(row) {
				before := row[:cursorX]
				afterStart := cursorX + len(segment)
				after := ""
				if afterStart < len(row) {
					after = row[afterStart:]
				}
				fullText := before + segment + after
				if len(fullText) > m.width {
					fullText = fullText[:m.width]
				}
				m.upperWindowText[cursorY] = fullText
			}
		}
		if segIdx < len(segments)-1 {
			cursorY++
			cursorX = 0
		}
	}
	m.upperWindowCursorX, m.upperWindowCursorY = cursorX+1, cursorY+1
}

func (m model) View() string {
	if m.runtimeError != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
		return fmt.Sprintf("\n%s\n\n%s\n", errorStyle.Render("Z-Machine Error:"), m.runtimeError)
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	s := strings.Builder{}
	lowerWindowHeight := m.height

	if m.statusRight != "" {
		statusStyle := colourStyle(zboundary.ReverseVideo, m.lowerFg, m.lowerBg)
		s.WriteString(statusStyle.Render(createStatusLine(m.width, m.statusLocation, m.statusRight)))
		s.WriteString("\n")
		lowerWindowHeight -= 2
	} else {
		lowerWindowHeight -= m.upperWindowHeight

		var text strings.Builder
		var currentText strings.Builder
		var currentStyle lipgloss.Style
		for row, styleRow := range m.upperWindowStyle {
			if row >= len(m.upperWindowText) {
				break
			}
			runes := []rune(m.upperWindowText[row])
			for col, chrStyle := range styleRow {
				if col >= len(runes) {
					break
				}
				if chrStyle.GetBackground() != currentStyle.GetBackground() ||
					chrStyle.GetForeground() != currentStyle.GetForeground() ||
					chrStyle.GetBold() != currentStyle.GetBold() ||
					chrStyle.GetItalic() != currentStyle.GetItalic() ||
					chrStyle.GetReverse() != currentStyle.GetReverse() {
					if currentText.Len() > 0 {
						text.WriteString(currentStyle.Render(currentText.String()))
					}
					currentStyle = chrStyle
					currentText.Reset()
				}
				currentText.WriteRune(runes[col])
			}
			currentText.WriteByte('\n')
		}
		if currentText.Len() > 0 {
			text.WriteString(currentStyle.Render(currentText.String()))
		}
		s.WriteString(text.String())
	}

	wordWrapped := wordwrap.String(m.lowerWindowTextPreStyled, m.width)
	lines := strings.Split(wordWrapped, "\n")
	if len(lines) > lowerWindowHeight-2 {
		lines = lines[len(lines)-lowerWindowHeight+2:]
	}
	s.WriteString(strings.Join(lines, "\n"))

	if m.appState == appWaitingForInput {
		s.WriteString("\n" + m.inputBox.View())
	}

	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(s.String())
}
