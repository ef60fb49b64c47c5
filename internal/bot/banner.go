package bot

import (
	"fmt"
	"strings"

	"github.com/mazznoer/colorgrad"
)

// GetBanner returns a colorized ASCII art banner
func GetBanner(version string) string {
	banner := `
 __  __                _      ____           _
|  \/  |  ___   ___   | |__  / ___|   __ _  | |_    ___
| |\/| | / _ \ / __|  | '_ \| |  _   / _' | | __|  / _ \
| |  | ||  __/ \__ \  | | | | |_| | | (_| | | |_  |  __/
|_|  |_| \___| |___/  |_| |_|\____|  \__,_|  \__|  \___|
 .  .  .  pay  per  packet,  reach  every  node  [v` + version + `]
`
	grad, _ := colorgrad.NewGradient().
		HtmlColors("#10f07bff", "#fdfdfdff").
		Build()

	lines := strings.Split(banner, "\n")

	// Find max line length for gradient spread
	maxLen := 0
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}

	colors := grad.Colors(uint(maxLen))
	var coloredBanner strings.Builder

	for _, line := range lines {
		for i, ch := range line {
			r, g, b, _ := colors[i].RGBA255()
			coloredBanner.WriteString(fmt.Sprintf("\x1b[38;2;%d;%d;%dm%c", r, g, b, ch))
		}
		coloredBanner.WriteString("\x1b[0m\n")
	}

	return coloredBanner.String()
}
