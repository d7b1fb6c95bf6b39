package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/sqirvy-health/internal/models"
)

var (
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	SlotStyle    = lipgloss.NewStyle().Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	TotalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

var slotTitles = map[models.Slot]string{
	models.SlotBreakfast:      "Breakfast",
	models.SlotMorningSnack:   "Morning snack",
	models.SlotLunch:          "Lunch",
	models.SlotAfternoonSnack: "Afternoon snack",
	models.SlotDinner:         "Dinner",
	models.SlotEveningSnack:   "Evening snack",
}

// SlotTitle returns the display name of a slot
func SlotTitle(slot models.Slot) string {
	if title, ok := slotTitles[slot]; ok {
		return title
	}
	return string(slot)
}

// FormatKcal renders a calorie value without trailing zeros
func FormatKcal(kcal float64) string {
	return fmt.Sprintf("%g kcal", kcal)
}

// FormatItem renders one logged item on a single line
func FormatItem(item models.MealItem) string {
	line := fmt.Sprintf("#%-4d %s (%s)", item.ID, item.Food.Name, item.Food.Unit)
	if item.Quantity != 1 {
		line += fmt.Sprintf(" x%g", item.Quantity)
	}
	return line + "  " + MutedStyle.Render(FormatKcal(item.Food.Kcal))
}

// RenderDay renders a day with its six slots. Empty slots are listed
// unless compact is set.
func RenderDay(day models.Day, compact bool) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(day.Record.Date))
	b.WriteString("  ")
	b.WriteString(TotalStyle.Render(FormatKcal(day.Record.TotalKcal)))
	b.WriteString("\n")

	for _, slot := range models.Slots {
		items := day.Buckets[slot]
		if compact && len(items) == 0 {
			continue
		}
		b.WriteString(SlotStyle.Render(SlotTitle(slot)))
		b.WriteString("\n")
		if len(items) == 0 {
			b.WriteString("  " + MutedStyle.Render("nothing logged") + "\n")
			continue
		}
		for _, item := range items {
			b.WriteString("  " + FormatItem(item) + "\n")
		}
	}

	if computed := day.ItemKcal(); computed != day.Record.TotalKcal {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("⚠ stored total differs from items (%g); run 'sqirvy doctor --fix'", computed)))
		b.WriteString("\n")
	}
	return b.String()
}
