package app

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
)

// ScoreFunc computes the points awarded for a correct answer submitted after
// elapsed time within a window of limit. Implementations must be monotonically
// non-increasing in elapsed. Incorrect answers never reach the score function.
type ScoreFunc func(basePoints int, elapsed, limit time.Duration) int

// SpeedWeightedScore is the default curve: round(base * remaining / limit),
// where remaining is clamped to zero so grace-window submissions score 0.
func SpeedWeightedScore(basePoints int, elapsed, limit time.Duration) int {
	if limit <= 0 {
		return basePoints
	}
	remaining := limit - elapsed
	if remaining <= 0 {
		return 0
	}
	return int(math.Round(float64(basePoints) * remaining.Seconds() / limit.Seconds()))
}

// SpeedBonusScore reproduces the curve used by the mobile dashboards:
// base points plus a bonus scaled by the fraction of the window left.
func SpeedBonusScore(multiplier float64) ScoreFunc {
	return func(basePoints int, elapsed, limit time.Duration) int {
		if limit <= 0 {
			return basePoints
		}
		ratio := 1 - elapsed.Seconds()/limit.Seconds()
		if ratio < 0 {
			ratio = 0
		}
		return int(math.Round(float64(basePoints) + float64(basePoints)*multiplier*ratio))
	}
}

// matchAnswer checks a submitted answer against the question's answer key.
// Multiple-choice answers are option indexes; everything else is compared
// case-insensitively after trimming.
func matchAnswer(q domain.Question, answer string) bool {
	submitted := strings.TrimSpace(answer)
	expected := strings.TrimSpace(q.CorrectAnswer)
	if q.Type == domain.QuestionMultipleChoice {
		si, err1 := strconv.Atoi(submitted)
		ei, err2 := strconv.Atoi(expected)
		if err1 == nil && err2 == nil {
			return si == ei
		}
		return submitted == expected
	}
	return strings.EqualFold(submitted, expected)
}

// questionPoints resolves the base points for a question, falling back to the
// session default and finally to 100.
func questionPoints(q domain.Question, settings domain.SessionSettings) int {
	if q.BasePoints > 0 {
		return q.BasePoints
	}
	if settings.BasePoints > 0 {
		return settings.BasePoints
	}
	return 100
}
