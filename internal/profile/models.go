package profile

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	BirthDate string    `json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Stats struct {
	TrailsCompleted int     `json:"trails_completed"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	EventsOrganized int     `json:"events_organized"`
	HikingBuddies   int     `json:"hiking_buddies"`
	PhotosShared    int     `json:"photos_shared"`
	EarlyStarts     int     `json:"early_starts"`
}

type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Threshold   int    `json:"threshold"`
	Progress    int    `json:"progress"`
	Unlocked    bool   `json:"unlocked"`
}

type Hike struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DistanceKm  float64   `json:"distance_km"`
	Points      int       `json:"points"`
	CompletedAt time.Time `json:"completed_at"`
}

type Profile struct {
	User         User          `json:"user"`
	Stats        Stats         `json:"stats"`
	Achievements []Achievement `json:"achievements"`
	RecentHikes  []Hike        `json:"recent_hikes"`
}

type UpdateRequest struct {
	Name      *string `json:"name"`
	BirthDate *string `json:"birth_date"`
}
