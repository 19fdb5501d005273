package assess

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/flareguard-backend/internal/model"
	"github.com/nyashahama/flareguard-backend/internal/store"
	"github.com/nyashahama/flareguard-backend/internal/weather"
)

// ─── FAKES ────────────────────────────────────────────────────────────────────

type fakeStore struct {
	profiles  map[uuid.UUID]model.UserProfile
	logs      []model.SymptomLog
	latest    *model.RiskAssessmentResult
	saved     []model.RiskAssessmentResult
	checkIns  []model.SymptomLog
	logDays   int
	failReads error
	failSave  error
}

func newFakeStore(p model.UserProfile) *fakeStore {
	return &fakeStore{profiles: map[uuid.UUID]model.UserProfile{p.ID: p}}
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (model.UserProfile, error) {
	if f.failReads != nil {
		return model.UserProfile{}, f.failReads
	}
	p, ok := f.profiles[id]
	if !ok {
		return model.UserProfile{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetRecentLogs(_ context.Context, _ uuid.UUID, days int) ([]model.SymptomLog, error) {
	f.logDays = days
	return f.logs, nil
}

func (f *fakeStore) LatestAssessment(context.Context, uuid.UUID) (model.RiskAssessmentResult, error) {
	if f.latest == nil {
		return model.RiskAssessmentResult{}, store.ErrNotFound
	}
	return *f.latest, nil
}

func (f *fakeStore) SaveCheckIn(_ context.Context, l model.SymptomLog) (model.SymptomLog, error) {
	f.checkIns = append(f.checkIns, l)
	return l, nil
}

func (f *fakeStore) SaveAssessment(_ context.Context, _ uuid.UUID, r model.RiskAssessmentResult) (uuid.UUID, error) {
	if f.failSave != nil {
		return uuid.Nil, f.failSave
	}
	f.saved = append(f.saved, r)
	return uuid.New(), nil
}

type fakeWeather struct {
	snap model.WeatherSnapshot
	err  error
	got  []model.Location
}

func (f *fakeWeather) Current(_ context.Context, loc model.Location) (model.WeatherSnapshot, error) {
	f.got = append(f.got, loc)
	if loc.IsZero() {
		return model.WeatherSnapshot{}, weather.ErrLocationRequired
	}
	return f.snap, f.err
}

type fakePlanner struct {
	plan string
	err  error
}

func (f fakePlanner) Plan(context.Context, model.RiskAssessmentResult, model.UserProfile) (string, error) {
	return f.plan, f.err
}

func city(name string) *model.Location { return &model.Location{City: name} }

func newTestService(st *fakeStore, wp *fakeWeather, planner Planner) *Service {
	return NewService(NewEngine(nil, nil, nil, discardLogger()), st, st, wp, planner, 0, discardLogger())
}

// ─── TESTS ────────────────────────────────────────────────────────────────────

func TestAssessUser_RecordsResult(t *testing.T) {
	p := profile()
	p.ID = uuid.New()
	p.Location = city("Berlin")
	st := newFakeStore(p)
	wp := &fakeWeather{snap: harshWeather()}

	got, err := newTestService(st, wp, nil).AssessUser(context.Background(), p.ID, nil)
	require.NoError(t, err)

	require.NotEqual(t, uuid.Nil, got.ID)
	require.Equal(t, p.ID, got.Profile.ID)
	require.Len(t, st.saved, 1)
	require.Equal(t, got.Result, st.saved[0])
	require.Equal(t, DefaultHistoryDays, st.logDays)
	require.Equal(t, "Berlin", wp.got[0].City)
}

func TestAssessUser_LocationOverride(t *testing.T) {
	p := profile()
	p.ID = uuid.New()
	p.Location = city("Berlin")
	wp := &fakeWeather{snap: harshWeather()}

	_, err := newTestService(newFakeStore(p), wp, nil).AssessUser(context.Background(), p.ID, city("Lisbon"))
	require.NoError(t, err)
	require.Equal(t, "Lisbon", wp.got[0].City)
}

func TestAssessUser_Errors(t *testing.T) {
	p := profile()
	p.ID = uuid.New()

	t.Run("unknown profile", func(t *testing.T) {
		_, err := newTestService(newFakeStore(p), &fakeWeather{}, nil).AssessUser(context.Background(), uuid.New(), city("Berlin"))
		require.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("store down", func(t *testing.T) {
		st := newFakeStore(p)
		st.failReads = errors.New("connection refused")
		_, err := newTestService(st, &fakeWeather{}, nil).AssessUser(context.Background(), p.ID, city("Berlin"))
		require.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("no location", func(t *testing.T) {
		_, err := newTestService(newFakeStore(p), &fakeWeather{}, nil).AssessUser(context.Background(), p.ID, nil)
		require.ErrorIs(t, err, ErrWeatherUnavailable)
		require.ErrorIs(t, err, weather.ErrLocationRequired)
	})

	t.Run("weather upstream", func(t *testing.T) {
		wp := &fakeWeather{err: errors.New("status=502")}
		_, err := newTestService(newFakeStore(p), wp, nil).AssessUser(context.Background(), p.ID, city("Berlin"))
		require.ErrorIs(t, err, ErrWeatherUnavailable)
	})

	t.Run("save fails", func(t *testing.T) {
		st := newFakeStore(p)
		st.failSave = errors.New("deadlock")
		_, err := newTestService(st, &fakeWeather{snap: harshWeather()}, nil).AssessUser(context.Background(), p.ID, city("Berlin"))
		require.ErrorIs(t, err, ErrStoreUnavailable)
	})
}

func TestCheckIn_AttachesWeather(t *testing.T) {
	p := profile()
	p.ID = uuid.New()
	p.Location = city("Berlin")
	st := newFakeStore(p)
	wp := &fakeWeather{snap: harshWeather()}

	saved, err := newTestService(st, wp, nil).CheckIn(context.Background(), model.SymptomLog{
		UserID: p.ID, Date: "2026-07-14", ItchScore: 3,
	})
	require.NoError(t, err)
	require.Equal(t, 34.0, saved.Weather.Temperature)
}

func TestCheckIn_WeatherFailureStillSaves(t *testing.T) {
	p := profile()
	p.ID = uuid.New()
	p.Location = city("Berlin")
	st := newFakeStore(p)
	wp := &fakeWeather{err: errors.New("timeout")}

	saved, err := newTestService(st, wp, nil).CheckIn(context.Background(), model.SymptomLog{
		UserID: p.ID, Date: "2026-07-14", ItchScore: 3,
	})
	require.NoError(t, err)
	require.True(t, saved.Weather.CapturedAt.IsZero())
	require.Len(t, st.checkIns, 1)
}

func TestCheckIn_UnknownProfile(t *testing.T) {
	st := newFakeStore(model.UserProfile{ID: uuid.New()})
	_, err := newTestService(st, &fakeWeather{}, nil).CheckIn(context.Background(), model.SymptomLog{UserID: uuid.New()})
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestTrendsForUser(t *testing.T) {
	p := model.UserProfile{ID: uuid.New()}
	st := newFakeStore(p)
	st.logs = []model.SymptomLog{{Date: "2026-07-14", ItchScore: 2}}

	report, err := newTestService(st, &fakeWeather{}, nil).TrendsForUser(context.Background(), p.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 28, st.logDays)
	require.Equal(t, 28, report.WindowDays)

	_, err = newTestService(st, &fakeWeather{}, nil).TrendsForUser(context.Background(), uuid.New(), 14)
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestTreatmentPlan(t *testing.T) {
	p := model.UserProfile{ID: uuid.New()}
	latest := model.RiskAssessmentResult{RiskScore: 65, RiskLevel: model.LevelHigh}

	t.Run("no assessment yet", func(t *testing.T) {
		_, _, err := newTestService(newFakeStore(p), &fakeWeather{}, fakePlanner{plan: "x"}).TreatmentPlan(context.Background(), p.ID)
		require.ErrorIs(t, err, ErrNoAssessment)
	})

	t.Run("planner succeeds", func(t *testing.T) {
		st := newFakeStore(p)
		st.latest = &latest
		plan, r, err := newTestService(st, &fakeWeather{}, fakePlanner{plan: "Moisturise twice daily."}).TreatmentPlan(context.Background(), p.ID)
		require.NoError(t, err)
		require.Equal(t, "Moisturise twice daily.", plan)
		require.Equal(t, latest, r)
	})

	t.Run("planner fails, assessment untouched", func(t *testing.T) {
		st := newFakeStore(p)
		st.latest = &latest
		_, r, err := newTestService(st, &fakeWeather{}, fakePlanner{err: errors.New("timeout")}).TreatmentPlan(context.Background(), p.ID)
		require.ErrorIs(t, err, ErrPlanUnavailable)
		require.Equal(t, latest, r)
		require.Empty(t, st.saved)
	})

	t.Run("no planner", func(t *testing.T) {
		st := newFakeStore(p)
		st.latest = &latest
		_, _, err := newTestService(st, &fakeWeather{}, nil).TreatmentPlan(context.Background(), p.ID)
		require.ErrorIs(t, err, ErrPlanUnavailable)
	})
}
