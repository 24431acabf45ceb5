package task

import (
	"time"

	"courierdesk/internal/pkg/errs"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is the customer's score of a delivered task.
type Rating struct {
	score   int
	ratedAt time.Time
}

// NewRating rejects scores outside [MinScore, MaxScore].
func NewRating(score int, ratedAt time.Time) (Rating, error) {
	if score < MinScore || score > MaxScore {
		return Rating{}, errs.NewValueIsOutOfRangeError("score", score, MinScore, MaxScore)
	}
	return Rating{score: score, ratedAt: ratedAt.UTC()}, nil
}

func (r Rating) Score() int {
	return r.score
}

func (r Rating) RatedAt() time.Time {
	return r.ratedAt
}
