package widgets

import "fmt"

// FormatCount shortens large row counts, 1234567 becomes 1.2M
func FormatCount(value int64) string {
	v := float64(value)
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fG", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	}
	return fmt.Sprintf("%d", value)
}
