package tournament

import "time"

const (
	blindLevels     = 20
	blindStep       = 25
	anteFromLevel   = 5
	anteStep        = 5
	firstSmallBlind = 25
)

// DefaultStructure returns the preset for a game type.
func DefaultStructure(g GameType) Structure {
	switch g {
	case GameBingo:
		return Structure{
			StartingStack:          4,
			StackUnit:              UnitCards,
			LevelDuration:          5 * time.Minute,
			LateRegistrationLevels: 2,
		}
	case GameSlots:
		return Structure{
			StartingStack:          1000,
			StackUnit:              UnitCredits,
			LevelDuration:          3 * time.Minute,
			LateRegistrationLevels: 1,
		}
	default:
		return Structure{
			StartingStack:          10000,
			StackUnit:              UnitChips,
			LevelDuration:          10 * time.Minute,
			BreakFrequency:         6,
			BreakDuration:          5 * time.Minute,
			LateRegistrationLevels: 4,
			RebuyLevels:            4,
			AddonAllowed:           true,
			AddonStack:             10000,
		}
	}
}

// mergeStructure lays non-zero override fields over the preset.
func mergeStructure(base Structure, o *Structure) Structure {
	if o == nil {
		return base
	}
	if o.StartingStack > 0 {
		base.StartingStack = o.StartingStack
	}
	if o.StackUnit != "" {
		base.StackUnit = o.StackUnit
	}
	if o.LevelDuration > 0 {
		base.LevelDuration = o.LevelDuration
	}
	if o.BreakFrequency > 0 {
		base.BreakFrequency = o.BreakFrequency
	}
	if o.BreakDuration > 0 {
		base.BreakDuration = o.BreakDuration
	}
	if o.LateRegistrationLevels > 0 {
		base.LateRegistrationLevels = o.LateRegistrationLevels
	}
	if o.RebuyLevels > 0 {
		base.RebuyLevels = o.RebuyLevels
	}
	if o.AddonAllowed {
		base.AddonAllowed = true
	}
	if o.AddonStack > 0 {
		base.AddonStack = o.AddonStack
	}
	return base
}

// BlindSchedule builds the fixed poker blind ladder. The small blind
// doubles and then grows by half on alternating levels, rounded to the
// chip step, and antes start at level five.
func BlindSchedule(levelDuration time.Duration) []BlindLevel {
	out := make([]BlindLevel, 0, blindLevels)
	sb := int64(firstSmallBlind)
	for lvl := 1; lvl <= blindLevels; lvl++ {
		if lvl > 1 {
			if lvl%2 == 0 {
				sb *= 2
			} else {
				sb = roundTo(sb*3/2, blindStep)
			}
		}
		bb := sb * 2
		var ante int64
		if lvl >= anteFromLevel {
			ante = roundTo(bb/10, anteStep)
			if ante < anteStep {
				ante = anteStep
			}
		}
		out = append(out, BlindLevel{
			Level:      lvl,
			SmallBlind: sb,
			BigBlind:   bb,
			Ante:       ante,
			Duration:   levelDuration,
		})
	}
	return out
}

func roundTo(v, step int64) int64 {
	if step <= 0 {
		return v
	}
	r := (v + step/2) / step * step
	if r < step {
		return step
	}
	return r
}
