package academy

import (
	"testing"
	"time"
)

func TestWithDefaults(t *testing.T) {
	got := Settings{}.WithDefaults()
	if got.Clock == nil || got.Location != time.UTC || got.Logger == nil {
		t.Fatalf("unset fields not filled: %+v", got)
	}
	if got.Scores.OnTime != DefaultOnTimeScore || got.Scores.Late != DefaultLateScore {
		t.Errorf("scores = %+v", *got.Scores)
	}
}

func TestWithDefaults_KeepsZeroScores(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
	}{
		{"late earns nothing", Scores{OnTime: 1, Late: 0}},
		{"both zero", Scores{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.scores
			got := Settings{Scores: &s}.WithDefaults()
			if *got.Scores != tt.scores {
				t.Errorf("scores = %+v, want %+v", *got.Scores, tt.scores)
			}
		})
	}
}
