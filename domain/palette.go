package domain

import (
	"math/rand"
	"strings"
)

// Palette holds the fixed set of colors handed out to sessions that do not
// pick one themselves.
var Palette = []string{
	"#e91e63", "#9c27b0", "#3f51b5", "#2196f3", "#009688",
	"#4caf50", "#ff9800", "#795548", "#607d8b", "#f44336",
	"#673ab7", "#03a9f4", "#8bc34a", "#ffc107", "#ff5722",
}

// PickColor trims the proposed value and returns it verbatim when non-blank.
// Blank input picks a random palette entry. Values are never validated here;
// the rendering client decides what to do with them.
func PickColor(raw string) string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return Palette[rand.Intn(len(Palette))]
}
