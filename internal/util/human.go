package util

import "fmt"

// Human formats a byte count using binary units.
func Human(n int64) string {
	units := []string{"B", "KB", "MB", "GB"}

	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}

	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}

	return fmt.Sprintf("%.2f %s", v, units[i])
}
