package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Palette.
var (
	ColorBackground      = color.NRGBA{R: 0x28, G: 0x2A, B: 0x36, A: 0xFF}
	ColorForeground      = color.NRGBA{R: 0xF8, G: 0xF8, B: 0xF2, A: 0xFF}
	ColorButton          = color.NRGBA{R: 0x62, G: 0x72, B: 0xA4, A: 0xFF}
	ColorActive          = color.NRGBA{R: 0x50, G: 0xFA, B: 0x7B, A: 0xFF}
	ColorInputBackground = color.NRGBA{R: 0x21, G: 0x22, B: 0x2C, A: 0xFF}
)

// JPOCRTheme is a dark theme. The variant requested by the OS is ignored.
type JPOCRTheme struct{}

var _ fyne.Theme = (*JPOCRTheme)(nil)

func (t *JPOCRTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground, theme.ColorNameOverlayBackground, theme.ColorNameMenuBackground:
		return ColorBackground
	case theme.ColorNameForeground:
		return ColorForeground
	case theme.ColorNamePrimary, theme.ColorNameButton:
		return ColorButton
	case theme.ColorNameHover, theme.ColorNameFocus:
		return color.NRGBA{R: 0x50, G: 0xFA, B: 0x7B, A: 0x60}
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0x50, G: 0xFA, B: 0x7B, A: 0x80}
	case theme.ColorNameInputBackground:
		return ColorInputBackground
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF} // Visible gray scrollbar
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *JPOCRTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *JPOCRTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *JPOCRTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 16 // Wider scrollbar for easier grabbing
	case theme.SizeNameScrollBarSmall:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}
