package route

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"backend-trekhub/internal/cache"
	"backend-trekhub/internal/logger"
	"backend-trekhub/internal/shared/geo"
	"backend-trekhub/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

func newTestService(t *testing.T, store *storage.Service) *Service {
	t.Helper()
	return NewService(cache.NewMemory(), store, nil, time.Hour, logger.Discard())
}

func TestServiceDrawingFlow(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	draft, err := svc.Draft(ctx, "user-1")
	if err != nil || draft.Len() != 0 || draft.Name != DefaultName {
		t.Fatalf("unexpected empty draft: %+v %v", draft, err)
	}

	if _, added, err := svc.Tap(ctx, "user-1", geo.Point{Lat: 45, Lng: 9}); err != nil || added {
		t.Fatalf("tap outside drawing mode must be ignored: %v %v", added, err)
	}

	if _, err := svc.SetDrawing(ctx, "user-1", true); err != nil {
		t.Fatalf("set drawing: %v", err)
	}
	for _, p := range []geo.Point{{Lat: 45, Lng: 9}, {Lat: 45.01, Lng: 9.01}, {Lat: 45.02, Lng: 9.02}} {
		if _, added, err := svc.Tap(ctx, "user-1", p); err != nil || !added {
			t.Fatalf("tap: %v %v", added, err)
		}
	}
	if _, _, err := svc.Tap(ctx, "user-1", geo.Point{Lat: 100, Lng: 9}); !errors.Is(err, ErrInvalidPoint) {
		t.Fatalf("expected invalid point, got %v", err)
	}

	draft, err = svc.RemoveLast(ctx, "user-1")
	if err != nil || draft.Len() != 2 {
		t.Fatalf("remove last: %d %v", draft.Len(), err)
	}

	other, _ := svc.Draft(ctx, "user-2")
	if other.Len() != 0 {
		t.Fatalf("drafts must be per user")
	}

	if err := svc.Clear(ctx, "user-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	draft, _ = svc.Draft(ctx, "user-1")
	if draft.Len() != 0 || draft.Drawing {
		t.Fatalf("expected fresh draft after clear: %+v", draft)
	}

	draft, err = svc.RemoveLast(ctx, "user-1")
	if err != nil || draft.Len() != 0 {
		t.Fatalf("remove on empty draft: %v", err)
	}
}

func TestServiceImportKeepsDraftOnError(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.LoadSample(ctx, "user-1"); err != nil {
		t.Fatalf("load sample: %v", err)
	}

	if _, err := svc.ImportGPX(ctx, "user-1", "broken.gpx", strings.NewReader("<gpx><<<")); !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected no points, got %v", err)
	}
	if _, err := svc.ImportGPX(ctx, "user-1", "notes.txt", strings.NewReader(SampleGPX)); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected unsupported file, got %v", err)
	}

	draft, _ := svc.Draft(ctx, "user-1")
	if draft.Len() != 6 || draft.Name != SampleName {
		t.Fatalf("draft changed after failed import: %+v", draft)
	}

	doc := `<gpx><trk><trkseg><trkpt lat="1" lon="1"/><trkpt lat="2" lon="2"/></trkseg></trk></gpx>`
	draft, err := svc.ImportGPX(ctx, "user-1", "uploads/Lake Loop.gpx", strings.NewReader(doc))
	if err != nil || draft.Len() != 2 || draft.Name != "Lake Loop" {
		t.Fatalf("import: %+v %v", draft, err)
	}
}

func TestServiceExport(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	svc := newTestService(t, storage.NewService(mock, t.TempDir()))
	ctx := context.Background()

	if _, _, err := svc.ExportGPX(ctx, "user-1"); !errors.Is(err, ErrEmptyRoute) {
		t.Fatalf("expected empty route, got %v", err)
	}

	if _, err := svc.LoadSample(ctx, "user-1"); err != nil {
		t.Fatalf("load sample: %v", err)
	}
	name, content, err := svc.ExportGPX(ctx, "user-1")
	if err != nil || name != "mountain-trail.gpx" {
		t.Fatalf("export: %s %v", name, err)
	}
	points, _ := ParseGPX(strings.NewReader(string(content)))
	if len(points) != 6 {
		t.Fatalf("exported gpx has %d points", len(points))
	}

	mock.ExpectQuery(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "user-1", "mountain-trail.gpx", pgxmock.AnyArg(), storage.KindGPX, int64(len(content))).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	obj, err := svc.SaveExport(ctx, "user-1")
	if err != nil || obj.Name != "mountain-trail.gpx" {
		t.Fatalf("save export: %+v %v", obj, err)
	}
}

func TestServiceSummary(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	sum, err := svc.Summary(ctx, "user-1")
	if err != nil || sum.Viewport != nil || sum.Points != 0 {
		t.Fatalf("empty summary: %+v %v", sum, err)
	}

	_, _ = svc.LoadSample(ctx, "user-1")
	sum, err = svc.Summary(ctx, "user-1")
	if err != nil || sum.Viewport == nil || sum.Points != 6 {
		t.Fatalf("summary: %+v %v", sum, err)
	}
	if sum.Stats.Duration != "1-3" {
		t.Fatalf("unexpected duration %s", sum.Stats.Duration)
	}
}

func TestServiceDraftExpiresInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	svc := NewService(cache.New(client), nil, FlatElevation{}, time.Minute, logger.Discard())
	ctx := context.Background()
	if _, err := svc.LoadSample(ctx, "user-1"); err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !mr.Exists(draftKey("user-1")) {
		t.Fatalf("draft not stored in redis")
	}

	mr.FastForward(2 * time.Minute)
	draft, err := svc.Draft(ctx, "user-1")
	if err != nil || draft.Len() != 0 {
		t.Fatalf("expected expired draft: %+v %v", draft, err)
	}
}
