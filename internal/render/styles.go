package render

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used for the bookmark list.
type Styles struct {
	Header   lipgloss.Style
	Tag      lipgloss.Style
	Bookmark lipgloss.Style
	Meta     lipgloss.Style // ids and tag lists
	Empty    lipgloss.Style
}

// DefaultStyles returns the default style configuration.
// Grayscale with a single desaturated teal accent.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"}
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}

	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Tag: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary),

		Bookmark: lipgloss.NewStyle().
			Foreground(primary),

		Meta: lipgloss.NewStyle().
			Foreground(subtle),

		Empty: lipgloss.NewStyle().
			Foreground(subtle).
			Italic(true),
	}
}
