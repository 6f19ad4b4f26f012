// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mayhemheroes/modus/pkg/dockerfile"
)

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	// ColorPrimary is purple, used for titles and image stages.
	ColorPrimary = lipgloss.Color("#7C3AED")
	// ColorMuted is gray, used for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is green.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is red.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is amber.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is blue, used for file names, keys and commands.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for headers and the root command banner.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	// SubtitleStyle is for secondary text.
	SubtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	// SuccessStyle is for success messages.
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	// ErrorStyle is for error findings.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	// WarningStyle is for warnings.
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	// CmdStyle is for file names, keys and commands.
	CmdStyle = lipgloss.NewStyle().Foreground(ColorHighlight)
)

// styles is the set of styles one output stream renders with. Without color
// every style is plain.
type styles struct {
	color    bool
	title    lipgloss.Style
	subtitle lipgloss.Style
	success  lipgloss.Style
	err      lipgloss.Style
	warning  lipgloss.Style
	cmd      lipgloss.Style
	tree     *dockerfile.TreeStyles
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{
			title: plain, subtitle: plain, success: plain,
			err: plain, warning: plain, cmd: plain,
		}
	}
	tree := dockerfile.DefaultTreeStyles()
	return styles{
		color:    true,
		title:    TitleStyle,
		subtitle: SubtitleStyle,
		success:  SuccessStyle,
		err:      ErrorStyle,
		warning:  WarningStyle,
		cmd:      CmdStyle,
		tree:     &tree,
	}
}

func (s styles) treeOptions() []dockerfile.TreeOption {
	if s.tree == nil {
		return nil
	}
	return []dockerfile.TreeOption{dockerfile.WithStyles(*s.tree)}
}

// isTerminal reports whether w is a terminal. NO_COLOR disables color
// whatever the writer.
func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
