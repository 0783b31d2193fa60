package navigation

import (
	"time"

	"backend-trekhub/internal/route"
	"backend-trekhub/internal/shared/geo"
)

type Instruction struct {
	Step       int           `json:"step"`
	Total      int           `json:"total"`
	Target     geo.Point     `json:"target"`
	BearingDeg float64       `json:"bearing_deg"`
	Direction  geo.Direction `json:"direction"`
	DistanceKm float64       `json:"distance_km"`
	Text       string        `json:"text"`
}

type Session struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Name        string             `json:"name"`
	Route       []route.TrackPoint `json:"route"`
	Step        int                `json:"step"`
	Position    geo.Point          `json:"position"`
	Active      bool               `json:"active"`
	Completed   bool               `json:"completed"`
	TravelledKm float64            `json:"travelled_km"`
	StartedAt   time.Time          `json:"started_at"`
	EndedAt     *time.Time         `json:"ended_at,omitempty"`
}

// View is a session together with the instruction for its current step.
// Instruction is nil once the session has ended.
type View struct {
	Session     Session      `json:"session"`
	Instruction *Instruction `json:"instruction,omitempty"`
}

type StartRequest struct {
	Name   string             `json:"name"`
	Points []route.TrackPoint `json:"points"`
}

type PositionRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
