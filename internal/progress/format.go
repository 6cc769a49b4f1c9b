package progress

import "fmt"

// binaryUnit is the 1024-based scaling step used for all byte quantities.
const binaryUnit = 1024

var byteUnitLabels = []string{"", "K", "M", "G", "T"}

// FormatBytes renders a byte quantity with binary unit scaling and two
// decimal places: 0 -> "0.00 B", 1024 -> "1.00 KB", 1536*1024 -> "1.50 MB".
func FormatBytes(size float64) string {
	n := 0
	for size >= binaryUnit && n < len(byteUnitLabels)-1 {
		size /= binaryUnit
		n++
	}
	return fmt.Sprintf("%.2f %sB", size, byteUnitLabels[n])
}

// FormatRate renders a bytes-per-second rate, or "N/A" when unknown.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "N/A"
	}
	return FormatBytes(bytesPerSec) + "/s"
}

// FormatETA renders a remaining duration in seconds. Negative input means
// unknown and yields "--:--"; durations under an hour render as MM:SS and
// longer ones as H:MM:SS.
func FormatETA(seconds int64) string {
	if seconds < 0 {
		return "--:--"
	}
	m, s := seconds/60, seconds%60
	h, m := m/60, m%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
