package zboundary

import "testing"

func TestNewZMachineColorStandardPalette(t *testing.T) {
	m := NewScreenModel(5, NewColor(255, 255, 255), NewColor(0, 0, 0))

	if got := m.NewZMachineColor(2, true); got != (Color{0, 0, 0}) {
		t.Fatalf("colour 2 (BLACK) = %+v", got)
	}
	if got := m.NewZMachineColor(9, true); got != (Color{255, 255, 255}) {
		t.Fatalf("colour 9 (WHITE) = %+v", got)
	}
}

func TestNewZMachineColorGreyShadesGatedByVersion(t *testing.T) {
	fg, bg := NewColor(255, 255, 255), NewColor(0, 0, 0)

	v5 := NewScreenModel(5, fg, bg)
	if got := v5.NewZMachineColor(10, true); got != (Color{192, 192, 192}) {
		t.Fatalf("v5 colour 10 (LIGHT GREY) = %+v", got)
	}

	v3 := NewScreenModel(3, fg, bg)
	want, _ := v3.currentOrDefaultColor(1, true)
	if got := v3.NewZMachineColor(10, true); got != want {
		t.Fatalf("v3 colour 10 should fall back to DEFAULT (%+v), got %+v", want, got)
	}
}

func TestNewZMachineColorCurrentAndDefaultSentinels(t *testing.T) {
	fg, bg := NewColor(10, 20, 30), NewColor(40, 50, 60)
	m := NewScreenModel(3, fg, bg)

	if got := m.NewZMachineColor(1, true); got != fg {
		t.Fatalf("DEFAULT foreground = %+v, want %+v", got, fg)
	}

	m.LowerWindowForeground = NewColor(1, 2, 3)
	if got := m.NewZMachineColor(0, true); got != m.LowerWindowForeground {
		t.Fatalf("CURRENT foreground = %+v, want %+v", got, m.LowerWindowForeground)
	}
}

func TestColorRGBRoundTrip(t *testing.T) {
	c := NewColor(12, 34, 56)
	r, g, b := c.RGB()
	if r != 12 || g != 34 || b != 56 {
		t.Fatalf("RGB() = (%d,%d,%d), want (12,34,56)", r, g, b)
	}
	if hex := c.ToHex(); hex != "#0c2238" {
		t.Fatalf("ToHex() = %q, want %q", hex, "#0c2238")
	}
}
