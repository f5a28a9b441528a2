package styles

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("62")
	colorUser    = lipgloss.Color("39")
	colorBot     = lipgloss.Color("214")
	colorMuted   = lipgloss.Color("241")
	colorError   = lipgloss.Color("203")
	colorSuccess = lipgloss.Color("78")
)

func InputStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Width(max(width-4, 10))
}

func StatusStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(colorMuted).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(width)
}

func ErrorStatusStyle(width int) lipgloss.Style {
	return StatusStyle(width).Foreground(colorError).Bold(true)
}

func SuccessStatusStyle(width int) lipgloss.Style {
	return StatusStyle(width).Foreground(colorSuccess)
}

func HintStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(colorMuted).
		Italic(true).
		Padding(0, 2)
}

func UserStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(colorUser).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(colorUser).
		Padding(0, 1).
		MarginLeft(2)
}

func BotStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(colorBot).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(colorBot).
		Padding(0, 1).
		MarginLeft(2)
}

func FileStyle() lipgloss.Style {
	return UserStyle().Italic(true)
}

func PlaceholderStyle() lipgloss.Style {
	return BotStyle().Foreground(colorMuted)
}

func SpinnerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorBot)
}

func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("141")).
		Bold(true).
		Padding(0, 2)
}

func PanelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(1, 2).
		Width(min(max(width-4, 30), 72))
}

func LabelStyle(focused bool) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(colorMuted)
	if focused {
		style = style.Foreground(colorAccent).Bold(true)
	}
	return style
}

func FieldErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorError).PaddingLeft(2)
}

func TabStyle(active bool) lipgloss.Style {
	style := lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted)
	if active {
		style = style.Foreground(lipgloss.Color("230")).Background(colorAccent).Bold(true)
	}
	return style
}
