package trail

import "time"

// Categories a trail list can be requested by.
const (
	CategoryPopular     = "popular"
	CategoryNearby      = "nearby"
	CategoryEasy        = "easy"
	CategoryChallenging = "challenging"
	CategoryScenic      = "scenic"
)

type Trail struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	DistanceKm    float64   `json:"distance_km"`
	ElevationM    float64   `json:"elevation_m"`
	Difficulty    string    `json:"difficulty"`
	Rating        float64   `json:"rating"`
	ReviewCount   int       `json:"review_count"`
	EstimatedTime string    `json:"estimated_time"`
	Features      []string  `json:"features"`
	ImageURL      string    `json:"image_url"`
	Lat           float64   `json:"lat"`
	Lng           float64   `json:"lng"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateRequest struct {
	Name          string   `json:"name" validate:"required"`
	Location      string   `json:"location" validate:"required"`
	DistanceKm    float64  `json:"distance_km" validate:"gt=0"`
	ElevationM    float64  `json:"elevation_m" validate:"min=0"`
	Difficulty    string   `json:"difficulty" validate:"required,oneof=Easy Moderate Hard"`
	EstimatedTime string   `json:"estimated_time"`
	Features      []string `json:"features"`
	ImageURL      string   `json:"image_url"`
	Lat           float64  `json:"lat" validate:"min=-90,max=90"`
	Lng           float64  `json:"lng" validate:"min=-180,max=180"`
}

type Review struct {
	ID        string    `json:"id"`
	TrailID   string    `json:"trail_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment"`
}

// NearbyQuery centres a radius search on a point.
type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}
