// Package performance converts fetch latency into a bounded score.
package performance

import (
	"time"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

const (
	minScore = 10
	maxScore = 100
)

// neutralScore is returned when the fetch itself failed: the report still
// renders, it just carries no timing signal.
const neutralScore = 50

// Score maps round-trip latency to an integer in [10,100] via linear decay:
// every 10ms of latency costs one point. A measurement without a status code
// carries no timing signal and degrades to the neutral result.
func Score(elapsed time.Duration, statusCode int) analyzer.PerformanceResult {
	if statusCode <= 0 {
		return Degraded()
	}
	ms := float64(elapsed) / float64(time.Millisecond)
	score := int(100 - ms/10)
	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}
	return analyzer.PerformanceResult{
		Score:          score,
		ResponseTimeMs: ms,
		StatusCode:     statusCode,
	}
}

// Degraded is the fixed neutral result for unreachable targets.
func Degraded() analyzer.PerformanceResult {
	return analyzer.PerformanceResult{
		Score:          neutralScore,
		ResponseTimeMs: 0,
		StatusCode:     0,
	}
}
