package revenue

import "github.com/bessleague/bessleague/pkg/types"

// IntervalClass says whether a physical notification segment holds its level
// or ramps between two levels.
type IntervalClass string

const (
	ClassFlat    IntervalClass = "flat"
	ClassRamping IntervalClass = "ramping"
)

// ApportionedInterval is a physical interval annotated with its duration and
// the volume used for revenue.
type ApportionedInterval struct {
	types.PhysicalInterval
	DurationHours   float64
	EffectiveVolume float64
	Class           IntervalClass
}

// Apportion annotates every interval with its duration in hours and its
// effective volume. A flat interval's volume is its level. A ramping
// interval's volume is LevelFrom + LevelTo, not the average of the two.
// Zero-duration intervals are kept so the asset still aggregates.
func Apportion(intervals []types.PhysicalInterval) []ApportionedInterval {
	out := make([]ApportionedInterval, 0, len(intervals))
	for _, in := range intervals {
		a := ApportionedInterval{
			PhysicalInterval: in,
			DurationHours:    in.TimeTo.Sub(in.TimeFrom).Hours(),
		}
		if in.LevelFrom == in.LevelTo {
			a.Class = ClassFlat
			a.EffectiveVolume = in.LevelFrom
		} else {
			a.Class = ClassRamping
			a.EffectiveVolume = in.LevelFrom + in.LevelTo
		}
		out = append(out, a)
	}
	return out
}
