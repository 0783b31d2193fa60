package navigation

import (
	"fmt"

	"backend-trekhub/internal/shared/geo"
)

// Instruct builds the spoken-style instruction for walking from position to
// target at the given step.
func Instruct(step, total int, position, target geo.Point) Instruction {
	bearing := geo.BearingDeg(position, target)
	distance := geo.DistanceKm(position, target)
	dir := geo.DirectionFor(bearing)
	return Instruction{
		Step:       step,
		Total:      total,
		Target:     target,
		BearingDeg: bearing,
		Direction:  dir,
		DistanceKm: distance,
		Text:       fmt.Sprintf("Head %s %s", dir.Name(), distancePhrase(distance)),
	}
}

func distancePhrase(km float64) string {
	switch {
	case km < 0.1:
		return "for a few meters"
	case km < 1:
		return fmt.Sprintf("for %.0f meters", km*1000)
	default:
		return fmt.Sprintf("for %.1f kilometers", km)
	}
}
