// Package academy groups the core services: cohort administration, the
// attendance and submission recorders, and the weekly report. The
// services share the Settings below.
package academy

import (
	"time"

	"github.com/dalemusser/academyhub/internal/app/system/clock"
	"github.com/dalemusser/academyhub/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Default attendance scores.
const (
	DefaultOnTimeScore = 1.0
	DefaultLateScore   = 0.5
)

// Scores are the attendance scores written on records. Zero is a valid
// score.
type Scores struct {
	OnTime float64
	Late   float64
}

// DefaultScores returns the scores used when Settings.Scores is nil.
func DefaultScores() *Scores {
	return &Scores{OnTime: DefaultOnTimeScore, Late: DefaultLateScore}
}

// Settings is what every academy service needs besides its stores.
type Settings struct {
	// Clock supplies "now". Nil means the system clock.
	Clock clock.Clock
	// Location decides calendar days. Nil means UTC.
	Location *time.Location
	// Scores for on-time and late attendance. Nil means DefaultScores.
	Scores  *Scores
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// WithDefaults fills unset fields.
func (s Settings) WithDefaults() Settings {
	s.Clock = clock.OrSystem(s.Clock)
	if s.Location == nil {
		s.Location = time.UTC
	}
	if s.Scores == nil {
		s.Scores = DefaultScores()
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	return s
}

// Now returns the clock's current instant in Location.
func (s Settings) Now() time.Time {
	return s.Clock.Now().In(s.Location)
}
