package performance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

func TestScore_LinearDecay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"instant response scores 100", 0, 100},
		{"300ms scores 70", 300 * time.Millisecond, 70},
		{"900ms hits the floor", 900 * time.Millisecond, 10},
		{"9s clamps to the floor", 9 * time.Second, 10},
		{"sub-10ms truncates toward 100", 5 * time.Millisecond, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Score(tt.elapsed, 200)
			require.Equal(t, tt.want, got.Score)
			require.Equal(t, 200, got.StatusCode)
			require.InDelta(t, float64(tt.elapsed)/float64(time.Millisecond), got.ResponseTimeMs, 0.001)
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()

	for ms := 0; ms <= 20000; ms += 137 {
		got := Score(time.Duration(ms)*time.Millisecond, 200)
		require.GreaterOrEqual(t, got.Score, 10)
		require.LessOrEqual(t, got.Score, 100)
	}
}

func TestDegraded_FixedNeutralResult(t *testing.T) {
	t.Parallel()

	require.Equal(t, analyzer.PerformanceResult{
		Score:          50,
		ResponseTimeMs: 0,
		StatusCode:     0,
	}, Degraded())
}

func TestScore_NoStatusCodeDegrades(t *testing.T) {
	t.Parallel()

	require.Equal(t, Degraded(), Score(300*time.Millisecond, 0))
	require.Equal(t, Degraded(), Score(0, -1))
}
