package style

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/markviz/markviz/pkg/errors"
)

// Theme is the user-facing color set a palette is derived from. Only the
// three colors matter for derivation; the typography fields override the
// defaults when set.
type Theme struct {
	Background string  `toml:"background"`
	Text       string  `toml:"text"`
	Panel      string  `toml:"panel"`
	FontFamily string  `toml:"font_family"`
	FontSize   float64 `toml:"font_size"`
}

// builtinThemes are the named themes available without a theme file.
var builtinThemes = map[string]Theme{
	"github-light": {
		Background: "#ffffff",
		Text:       "#24292f",
		Panel:      "#f6f8fa",
	},
	"github-dark": {
		Background: "#0d1117",
		Text:       "#c9d1d9",
		Panel:      "#161b22",
	},
	"solarized-light": {
		Background: "#fdf6e3",
		Text:       "#586e75",
		Panel:      "#eee8d5",
	},
	"solarized-dark": {
		Background: "#002b36",
		Text:       "#839496",
		Panel:      "#073642",
	},
}

// DefaultThemeName is used when no theme is requested.
const DefaultThemeName = "github-light"

// Builtin returns a named built-in theme.
func Builtin(name string) (Theme, error) {
	if err := errors.ValidateThemeName(name); err != nil {
		return Theme{}, err
	}
	t, ok := builtinThemes[name]
	if !ok {
		return Theme{}, errors.New(errors.ErrCodeInvalidTheme, "unknown theme %q", name)
	}
	return t, nil
}

// BuiltinNames lists the built-in theme names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTheme reads a TOML theme file. Missing colors fall back to the
// default theme so partial files stay usable.
func LoadTheme(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "reading theme %s", path)
	}
	return ParseTheme(data)
}

// ParseTheme decodes TOML theme data and validates its colors.
func ParseTheme(data []byte) (Theme, error) {
	t := builtinThemes[DefaultThemeName]
	if err := toml.Unmarshal(data, &t); err != nil {
		return Theme{}, errors.Wrap(errors.ErrCodeInvalidTheme, err, "parsing theme")
	}
	for _, color := range []string{t.Background, t.Text, t.Panel} {
		if err := errors.ValidateHexColor(color); err != nil {
			return Theme{}, err
		}
	}
	return t, nil
}

// Style derives the render palette from the theme.
func (t Theme) Style() Style {
	s := FromTheme(t.Text, t.Background, t.Panel)
	if t.FontFamily != "" {
		s.FontFamily = t.FontFamily
	}
	if t.FontSize > 0 {
		s.FontSize = t.FontSize
	}
	return s
}
