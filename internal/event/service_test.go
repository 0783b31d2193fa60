package event

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"backend-trekhub/internal/cache"
	"backend-trekhub/internal/logger"
	"backend-trekhub/internal/route"
	"backend-trekhub/internal/shared/validate"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

var eventRowColumns = []string{
	"id", "title", "location", "starts_at", "difficulty", "max_participants", "participant_count",
	"description", "meeting_point", "equipment", "image_url", "distance_km", "elevation_gain_m", "duration",
	"route_points", "gpx_content", "created_by", "created_at", "status",
}

var twoPoints = []route.TrackPoint{{Lat: 45.4642, Lng: 9.19}, {Lat: 45.49, Lng: 9.24}}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

// insertEventArgs matches the seventeen columns written by Create.
func insertEventArgs() []any {
	args := make([]any, 17)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func validCreate() CreateRequest {
	starts := time.Date(2026, 6, 1, 6, 30, 0, 0, time.UTC)
	return CreateRequest{
		Title:           "Sunrise on Grigna",
		Location:        "Lecco",
		StartsAt:        &starts,
		Difficulty:      "Moderate",
		MaxParticipants: 12,
		Description:     "Early start to catch the sunrise.",
		RoutePoints:     twoPoints,
	}
}

func addEventRow(rows *pgxmock.Rows, id, title, difficulty, createdBy, status string, count, capacity int) *pgxmock.Rows {
	points, _ := json.Marshal(twoPoints)
	return rows.AddRow(id, title, "Lecco", time.Now(), difficulty, capacity, count,
		"desc", "", "", "", 4.8, 0.0, "1-3", points, "<gpx/>", createdBy, time.Now(), status)
}

func TestCreateDerivesRouteFigures(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, nil, logger.Discard())

	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(pgxmock.AnyArg(), "Sunrise on Grigna", "Lecco", pgxmock.AnyArg(), "Moderate", 12,
			"Early start to catch the sunrise.", "", "", "", 4.8, 0.0, "1-3",
			pgxmock.AnyArg(), pgxmock.AnyArg(), "user-1", StatusActive).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	ev, err := svc.Create(context.Background(), "user-1", validCreate())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ev.DistanceKm != 4.8 || ev.Duration != "1-3" || ev.Status != StatusActive {
		t.Fatalf("unexpected derived figures: %+v", ev)
	}
	points, _ := route.ParseGPX(strings.NewReader(ev.GPXContent))
	if len(points) != 2 {
		t.Fatalf("gpx content has %d points", len(points))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateKeepsProvidedFigures(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, nil, logger.Discard())

	req := validCreate()
	distance, gain := 12.5, 900.0
	req.DistanceKm, req.ElevationGainM, req.Duration = &distance, &gain, "5-7"

	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 12.5, 900.0, "5-7",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	if _, err := svc.Create(context.Background(), "user-1", req); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(nil, nil, nil, logger.Discard())

	cases := map[string]func(*CreateRequest){
		"title":       func(r *CreateRequest) { r.Title = " " },
		"location":    func(r *CreateRequest) { r.Location = "" },
		"starts_at":   func(r *CreateRequest) { r.StartsAt = nil },
		"difficulty":  func(r *CreateRequest) { r.Difficulty = "Extreme" },
		"capacity":    func(r *CreateRequest) { r.MaxParticipants = 0 },
		"description": func(r *CreateRequest) { r.Description = "" },
	}
	for name, mutate := range cases {
		req := validCreate()
		mutate(&req)
		var fe *validate.FieldError
		if _, err := svc.Create(context.Background(), "user-1", req); !errors.As(err, &fe) {
			t.Fatalf("%s: expected field error, got %v", name, err)
		}
	}

	req := validCreate()
	req.RoutePoints = twoPoints[:1]
	if _, err := svc.Create(context.Background(), "user-1", req); !errors.Is(err, ErrRouteTooShort) {
		t.Fatalf("expected route too short, got %v", err)
	}
}

func TestCreateFromDraft(t *testing.T) {
	mock := newMock(t)
	routes := route.NewService(cache.NewMemory(), nil, nil, time.Hour, logger.Discard())
	if _, err := routes.LoadSample(context.Background(), "user-1"); err != nil {
		t.Fatalf("load sample: %v", err)
	}
	svc := NewService(mock, routes, nil, logger.Discard())

	mock.ExpectQuery(`INSERT INTO events`).
		WithArgs(insertEventArgs()...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	req := validCreate()
	req.RoutePoints = nil
	req.UseDraft = true
	ev, err := svc.Create(context.Background(), "user-1", req)
	if err != nil || len(ev.RoutePoints) != 6 {
		t.Fatalf("create from draft: %d %v", len(ev.RoutePoints), err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetAndList(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, nil, logger.Discard())

	mock.ExpectQuery(`SELECT id, title, location`).
		WithArgs("ev-1").
		WillReturnRows(addEventRow(pgxmock.NewRows(eventRowColumns), "ev-1", "Ridge", "Hard", "user-1", StatusActive, 0, 10))
	ev, err := svc.Get(context.Background(), "ev-1")
	if err != nil || ev.Title != "Ridge" || len(ev.RoutePoints) != 2 {
		t.Fatalf("get: %+v %v", ev, err)
	}

	mock.ExpectQuery(`SELECT id, title, location`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	rows := pgxmock.NewRows(eventRowColumns)
	addEventRow(rows, "ev-1", "Ridge Run", "Hard", "user-1", StatusActive, 0, 10)
	addEventRow(rows, "ev-2", "Lake Walk", "Easy", "user-1", StatusActive, 0, 10)
	addEventRow(rows, "ev-3", "Ridge Stroll", "Easy", "user-1", StatusActive, 0, 10)
	mock.ExpectQuery(`FROM events WHERE status = \$1`).
		WithArgs(StatusActive).
		WillReturnRows(rows)
	events, err := svc.List(context.Background(), Filter{Difficulty: "Easy", Query: "ridge"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 || events[0].ID != "ev-3" || events[0].GPXContent != "" {
		t.Fatalf("unexpected list: %+v", events)
	}

	mock.ExpectQuery(`FROM events WHERE status = \$1`).
		WithArgs(StatusActive).
		WillReturnError(errors.New("db error"))
	if _, err := svc.List(context.Background(), Filter{}); err == nil {
		t.Fatalf("expected list error")
	}
}

func TestJoin(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, nil, logger.Discard())
	ctx := context.Background()

	mock.ExpectQuery(`WITH slot AS`).
		WithArgs("ev-1", "user-2").
		WillReturnRows(pgxmock.NewRows([]string{"joined_at"}).AddRow(time.Now()))
	if p, err := svc.Join(ctx, "user-2", "ev-1"); err != nil || p.UserID != "user-2" {
		t.Fatalf("join: %+v %v", p, err)
	}

	mock.ExpectQuery(`WITH slot AS`).
		WithArgs("ev-1", "user-2").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	if _, err := svc.Join(ctx, "user-2", "ev-1"); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected already joined, got %v", err)
	}

	failures := []struct {
		status string
		count  int
		joined bool
		want   error
	}{
		{StatusActive, 10, false, ErrEventFull},
		{StatusCancelled, 0, false, ErrEventCancelled},
		{StatusActive, 3, true, ErrAlreadyJoined},
	}
	for _, f := range failures {
		mock.ExpectQuery(`WITH slot AS`).
			WithArgs("ev-1", "user-3").
			WillReturnRows(pgxmock.NewRows([]string{"joined_at"}))
		mock.ExpectQuery(`SELECT e.status, e.participant_count, e.max_participants`).
			WithArgs("ev-1", "user-3").
			WillReturnRows(pgxmock.NewRows([]string{"status", "participant_count", "max_participants", "exists"}).
				AddRow(f.status, f.count, 10, f.joined))
		if _, err := svc.Join(ctx, "user-3", "ev-1"); !errors.Is(err, f.want) {
			t.Fatalf("expected %v, got %v", f.want, err)
		}
	}

	mock.ExpectQuery(`WITH slot AS`).
		WithArgs("missing", "user-3").
		WillReturnRows(pgxmock.NewRows([]string{"joined_at"}))
	mock.ExpectQuery(`SELECT e.status`).
		WithArgs("missing", "user-3").
		WillReturnRows(pgxmock.NewRows([]string{"status", "participant_count", "max_participants", "exists"}))
	if _, err := svc.Join(ctx, "user-3", "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLeaveAndParticipants(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, nil, logger.Discard())
	ctx := context.Background()

	mock.ExpectExec(`WITH gone AS`).
		WithArgs("ev-1", "user-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	if err := svc.Leave(ctx, "user-2", "ev-1"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	mock.ExpectExec(`WITH gone AS`).
		WithArgs("ev-1", "user-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := svc.Leave(ctx, "user-2", "ev-1"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected not participant, got %v", err)
	}

	mock.ExpectQuery(`SELECT p.user_id, u.name, p.joined_at`).
		WithArgs("ev-1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "name", "joined_at"}).
			AddRow("user-2", "Luca", time.Now()).
			AddRow("user-3", "Giulia", time.Now()))
	participants, err := svc.Participants(ctx, "ev-1")
	if err != nil || len(participants) != 2 || participants[1].Name != "Giulia" {
		t.Fatalf("participants: %+v %v", participants, err)
	}
}

func TestCancel(t *testing.T) {
	mock := newMock(t)
	svc := NewService(mock, nil, nil, logger.Discard())
	ctx := context.Background()

	mock.ExpectQuery(`SELECT id, title, location`).
		WithArgs("ev-1").
		WillReturnRows(addEventRow(pgxmock.NewRows(eventRowColumns), "ev-1", "Ridge", "Hard", "user-1", StatusActive, 0, 10))
	if _, err := svc.Cancel(ctx, "user-2", "ev-1"); !errors.Is(err, ErrNotCreator) {
		t.Fatalf("expected not creator, got %v", err)
	}

	mock.ExpectQuery(`SELECT id, title, location`).
		WithArgs("ev-1").
		WillReturnRows(addEventRow(pgxmock.NewRows(eventRowColumns), "ev-1", "Ridge", "Hard", "user-1", StatusActive, 0, 10))
	mock.ExpectExec(`UPDATE events SET status`).
		WithArgs("ev-1", StatusCancelled).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ev, err := svc.Cancel(ctx, "user-1", "ev-1")
	if err != nil || ev.Status != StatusCancelled {
		t.Fatalf("cancel: %+v %v", ev, err)
	}
}
