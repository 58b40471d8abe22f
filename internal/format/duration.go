package format

import "fmt"

const maxHours = 999

// Duration renders seconds as "M:SS" or "H:MM:SS".
// Days are folded into hours, which are clipped at 999.
func Duration(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}

	seconds := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := min(totalSeconds/3600, maxHours)

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
