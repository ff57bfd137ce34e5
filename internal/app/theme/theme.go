package theme

// Mode is the UI colour scheme.
type Mode string

const (
	Light Mode = "light"
	Dark  Mode = "dark"
)

// Parse returns the mode named by s, defaulting to Light.
func Parse(s string) Mode {
	if Mode(s) == Dark {
		return Dark
	}
	return Light
}

// Next returns the opposite mode.
func (m Mode) Next() Mode {
	if m == Dark {
		return Light
	}
	return Dark
}

// Icon names the top bar glyph offered for switching away from m.
func (m Mode) Icon() string {
	if m == Dark {
		return "light_mode"
	}
	return "dark_mode"
}
