package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		size     float64
		expected string
	}{
		{"zero", 0, "0.00 B"},
		{"sub kilobyte", 512, "512.00 B"},
		{"exact kilobyte", 1024, "1.00 KB"},
		{"fractional megabyte", 1536 * 1024, "1.50 MB"},
		{"gigabyte", 3 * 1024 * 1024 * 1024, "3.00 GB"},
		{"terabyte ceiling", 2048 * 1024 * 1024 * 1024 * 1024, "2048.00 TB"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, FormatBytes(tc.size))
		})
	}
}

func TestFormatRate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "N/A", FormatRate(0))
	require.Equal(t, "N/A", FormatRate(-100))
	require.Equal(t, "1.46 MB/s", FormatRate(1.46*1024*1024))
}

func TestFormatETA(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		seconds  int64
		expected string
	}{
		{"unknown", -1, "--:--"},
		{"zero", 0, "00:00"},
		{"seconds only", 42, "00:42"},
		{"minute and seconds", 65, "01:05"},
		{"under an hour", 3599, "59:59"},
		{"over an hour", 3661, "1:01:01"},
		{"many hours", 10*3600 + 2, "10:00:02"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, FormatETA(tc.seconds))
		})
	}
}
