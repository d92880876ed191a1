package analysis

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Millions renders an amount in millions as "$80,000M".
func Millions(v float64) string {
	return printer.Sprintf("$%.0fM", v)
}

// Volume renders a production figure with one decimal and thousands separators.
func Volume(v float64) string {
	return printer.Sprintf("%.1f", v)
}

func join(items []string, n int) string {
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return strings.Join(items, ", ")
}
