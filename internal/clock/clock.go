package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time so pipeline decisions (program end dates, visibility
// deadlines) are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func NewSystemClock() Clock {
	return systemClock{}
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
