package player

import "fmt"

// FormatTime renders a position in seconds as MM:SS with zero-padded seconds,
// truncating fractional seconds. Callers guarantee a non-negative input.
func FormatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
