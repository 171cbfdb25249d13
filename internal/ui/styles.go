package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Design System Colors - Adaptive based on terminal background
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorAccent    lipgloss.Color

	ColorSuccess lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color
	ColorInfo    lipgloss.Color

	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorTextDim   lipgloss.Color
	ColorBorder    lipgloss.Color
	ColorSurface   lipgloss.Color
)

// Component styles, built by initializeColors
var (
	StyleTitle     lipgloss.Style
	StyleSubtitle  lipgloss.Style
	StyleText      lipgloss.Style
	StyleTextMuted lipgloss.Style
	StyleTextDim   lipgloss.Style

	StyleSuccess lipgloss.Style
	StyleWarning lipgloss.Style
	StyleError   lipgloss.Style
	StyleInfo    lipgloss.Style

	StyleLoading     lipgloss.Style
	StyleMetadata    lipgloss.Style
	StyleValue       lipgloss.Style
	StyleReplaced    lipgloss.Style
	StyleOverride    lipgloss.Style
	StyleWindowSlot  lipgloss.Style
	StyleWindowOther lipgloss.Style

	StyleScrollIndicator       lipgloss.Style
	StyleScrollIndicatorActive lipgloss.Style
)

// initializeColors picks a palette from the configured style, $GLAMOUR_STYLE
// or the terminal background, then builds the component styles
func initializeColors(style string) {
	if style == "" {
		style = os.Getenv("GLAMOUR_STYLE")
	}
	switch style {
	case "light":
		setLightThemeColors()
	case "dark", "notty", "ascii":
		setDarkThemeColors()
	default:
		if lipgloss.HasDarkBackground() {
			setDarkThemeColors()
		} else {
			setLightThemeColors()
		}
	}
	buildStyles()
}

func setDarkThemeColors() {
	ColorPrimary = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("33")
	ColorAccent = lipgloss.Color("214")

	ColorSuccess = lipgloss.Color("10")
	ColorWarning = lipgloss.Color("11")
	ColorError = lipgloss.Color("9")
	ColorInfo = lipgloss.Color("12")

	ColorText = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("244")
	ColorTextDim = lipgloss.Color("240")
	ColorBorder = lipgloss.Color("238")
	ColorSurface = lipgloss.Color("236")
}

func setLightThemeColors() {
	ColorPrimary = lipgloss.Color("125")
	ColorSecondary = lipgloss.Color("24")
	ColorAccent = lipgloss.Color("130")

	ColorSuccess = lipgloss.Color("22")
	ColorWarning = lipgloss.Color("136")
	ColorError = lipgloss.Color("160")
	ColorInfo = lipgloss.Color("24")

	ColorText = lipgloss.Color("232")
	ColorTextMuted = lipgloss.Color("240")
	ColorTextDim = lipgloss.Color("244")
	ColorBorder = lipgloss.Color("248")
	ColorSurface = lipgloss.Color("254")
}

func buildStyles() {
	StyleTitle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Padding(0, 1)
	StyleSubtitle = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Padding(0, 1)
	StyleText = lipgloss.NewStyle().Foreground(ColorText)
	StyleTextMuted = lipgloss.NewStyle().Foreground(ColorTextMuted)
	StyleTextDim = lipgloss.NewStyle().Foreground(ColorTextDim)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).Padding(0, 1)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true).Padding(0, 1)
	StyleError = lipgloss.NewStyle().Foreground(ColorError).Bold(true).Padding(0, 1)
	StyleInfo = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true).Padding(0, 1)

	StyleLoading = lipgloss.NewStyle().Foreground(ColorInfo).Italic(true).Padding(0, 1)
	StyleMetadata = lipgloss.NewStyle().Foreground(ColorTextDim).Padding(0, 1)

	// substitution chips in the values panel
	StyleValue = lipgloss.NewStyle().Foreground(ColorText)
	StyleReplaced = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	StyleOverride = lipgloss.NewStyle().Foreground(ColorSecondary).Underline(true)

	StyleWindowSlot = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(ColorSecondary).Bold(true).Padding(0, 1)
	StyleWindowOther = lipgloss.NewStyle().Foreground(ColorTextMuted).Padding(0, 1)

	StyleScrollIndicator = lipgloss.NewStyle().Foreground(ColorTextDim).Align(lipgloss.Center)
	StyleScrollIndicatorActive = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true).Align(lipgloss.Center)
}

// CreateMainHeader renders a page title
func CreateMainHeader(titleText string) string {
	return StyleTitle.Render(titleText)
}

func CreateMetadata(text string) string {
	return StyleMetadata.Render(text)
}

// CreateGuaranteedHelp renders help text truncated to the terminal width
func CreateGuaranteedHelp(helpText string, width int) string {
	helpStyle := lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Align(lipgloss.Left).
		Padding(0, 1)

	if width > 5 && len(helpText) > width-2 {
		helpText = helpText[:width-5] + "..."
	}
	return helpStyle.Render(helpText)
}

func CreateStatus(text string, statusType string) string {
	switch statusType {
	case "success":
		return StyleSuccess.Render(text)
	case "warning":
		return StyleWarning.Render(text)
	case "error":
		return StyleError.Render(text)
	case "info":
		return StyleInfo.Render(text)
	default:
		return StyleText.Render(text)
	}
}

// CreateWindow renders a bucket window, highlighting the value at the
// current slot
func CreateWindow(name string, values []string, slot int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if i == slot {
			parts[i] = StyleWindowSlot.Render(v)
		} else {
			parts[i] = StyleWindowOther.Render(v)
		}
	}
	label := StyleTextMuted.Render(padRight(name, 12))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, strings.Join(parts, ""))
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// AddMainPadding adds left padding to main content
func AddMainPadding(content string) string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(content)
}

// CreateScrollIndicators renders the markers above and below a viewport
func CreateScrollIndicators(canScrollUp, canScrollDown bool) (string, string) {
	top := StyleScrollIndicator.Render("─────────")
	if canScrollUp {
		top = StyleScrollIndicatorActive.Render("...")
	}
	bottom := StyleScrollIndicator.Render("─────────")
	if canScrollDown {
		bottom = StyleScrollIndicatorActive.Render("...")
	}
	return top, bottom
}
