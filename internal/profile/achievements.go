package profile

type rule struct {
	name        string
	description string
	threshold   int
	progress    func(Stats) int
}

var rules = []rule{
	{"First Hike", "Complete your first hike", 1, func(s Stats) int { return s.TrailsCompleted }},
	{"Mountain Climber", "Complete 5 hikes", 5, func(s Stats) int { return s.TrailsCompleted }},
	{"Early Bird", "Join 10 events that start before 7:00", 10, func(s Stats) int { return s.EarlyStarts }},
	{"Social Butterfly", "Follow 20 hikers", 20, func(s Stats) int { return s.HikingBuddies }},
	{"Trail Master", "Complete 50 hikes", 50, func(s Stats) int { return s.TrailsCompleted }},
	{"Nature Photographer", "Share 25 photos", 25, func(s Stats) int { return s.PhotosShared }},
}

// Achievements lists every achievement with the user's progress toward it.
func Achievements(s Stats) []Achievement {
	out := make([]Achievement, len(rules))
	for i, r := range rules {
		p := r.progress(s)
		out[i] = Achievement{
			Name:        r.name,
			Description: r.description,
			Threshold:   r.threshold,
			Progress:    min(p, r.threshold),
			Unlocked:    p >= r.threshold,
		}
	}
	return out
}
