package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/coach"
	"github.com/ayusman/repcoach/internal/rep"
	"github.com/ayusman/repcoach/internal/speech"
	"github.com/ayusman/repcoach/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeWorkouts struct {
	running  bool
	started  rep.Plan
	startErr error
	stopErr  error

	// captured when StopWorkout is called
	stopCtxErr   error
	stopDeadline bool
}

func (f *fakeWorkouts) StartWorkout(p rep.Plan) (coach.Result, error) {
	if f.startErr != nil {
		return coach.Result{}, f.startErr
	}
	if err := p.Validate(); err != nil {
		return coach.Result{}, err
	}
	if f.running {
		return coach.Result{}, app.ErrWorkoutRunning
	}
	f.running = true
	f.started = p
	return coach.Result{Exercise: p.Exercise, Side: p.Side, CurrentSet: 1, Feedback: coach.StartFeedback(1)}, nil
}

func (f *fakeWorkouts) StopWorkout(ctx context.Context) (app.StopResult, error) {
	f.stopCtxErr = ctx.Err()
	_, f.stopDeadline = ctx.Deadline()
	if f.stopErr != nil {
		return app.StopResult{}, f.stopErr
	}
	if !f.running {
		return app.StopResult{}, app.ErrNoWorkout
	}
	f.running = false
	return app.StopResult{Summary: coach.Summary{Exercise: f.started.Exercise, RepsLeft: 4}, Saved: true, Message: "done"}, nil
}

func (f *fakeWorkouts) Snapshot() (coach.Result, bool) {
	return coach.Result{Exercise: f.started.Exercise, Feedback: "Ready"}, f.running
}

var defaultPlan = rep.Plan{Exercise: rep.BicepCurls, Side: rep.Left, TargetReps: 10, TargetSets: 3}

func do(h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, "/", nil)
	} else {
		r = httptest.NewRequest(method, "/", strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func TestWorkoutHandler_Start(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPlan   rep.Plan
	}{
		{
			name:       "full plan",
			body:       `{"exercise":"squats","side":"both","target_reps":12,"target_sets":2}`,
			wantStatus: http.StatusCreated,
			wantPlan:   rep.Plan{Exercise: rep.Squats, Side: rep.Both, TargetReps: 12, TargetSets: 2},
		},
		{
			name:       "display name and defaults",
			body:       `{"exercise":"Overhead Press"}`,
			wantStatus: http.StatusCreated,
			wantPlan:   rep.Plan{Exercise: rep.OverheadPress, Side: rep.Left, TargetReps: 10, TargetSets: 3},
		},
		{
			name:       "empty body uses defaults",
			body:       "",
			wantStatus: http.StatusCreated,
			wantPlan:   defaultPlan,
		},
		{
			name:       "both-only exercise",
			body:       `{"exercise":"jumping_jacks","side":"right"}`,
			wantStatus: http.StatusCreated,
			wantPlan:   rep.Plan{Exercise: rep.JumpingJacks, Side: rep.Both, TargetReps: 10, TargetSets: 3},
		},
		{name: "unknown exercise", body: `{"exercise":"deadlift"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown side", body: `{"side":"middle"}`, wantStatus: http.StatusBadRequest},
		{name: "negative reps", body: `{"target_reps":-2}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{"exercise":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw := &fakeWorkouts{}
			h := NewWorkoutHandler(fw, defaultPlan)

			rec := do(h.Start, http.MethodPost, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			if fw.started != tt.wantPlan {
				t.Errorf("started plan = %+v, want %+v", fw.started, tt.wantPlan)
			}

			var res coach.Result
			if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if res.Feedback != "Set 1! Get in position!" {
				t.Errorf("feedback = %q", res.Feedback)
			}
		})
	}
}

func TestWorkoutHandler_StartConflict(t *testing.T) {
	h := NewWorkoutHandler(&fakeWorkouts{running: true}, defaultPlan)

	if rec := do(h.Start, http.MethodPost, ""); rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestWorkoutHandler_StartCameraFailure(t *testing.T) {
	h := NewWorkoutHandler(&fakeWorkouts{startErr: errors.New("open camera 0: no device")}, defaultPlan)

	if rec := do(h.Start, http.MethodPost, ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestWorkoutHandler_GetAndStop(t *testing.T) {
	fw := &fakeWorkouts{}
	h := NewWorkoutHandler(fw, defaultPlan)

	if rec := do(h.Get, http.MethodGet, ""); rec.Code != http.StatusNotFound {
		t.Errorf("idle GET status = %d, want 404", rec.Code)
	}
	if rec := do(h.Stop, http.MethodDelete, ""); rec.Code != http.StatusConflict {
		t.Errorf("idle DELETE status = %d, want 409", rec.Code)
	}

	do(h.Start, http.MethodPost, `{"exercise":"lunges"}`)

	if rec := do(h.Get, http.MethodGet, ""); rec.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", rec.Code)
	}

	rec := do(h.Stop, http.MethodDelete, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE status = %d, want 200", rec.Code)
	}
	var res app.StopResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Saved || res.Summary.RepsLeft != 4 || res.Summary.Exercise != rep.Lunges {
		t.Errorf("stop result = %+v", res)
	}
}

func TestWorkoutHandler_StopTimeout(t *testing.T) {
	h := NewWorkoutHandler(&fakeWorkouts{stopErr: context.DeadlineExceeded}, defaultPlan)

	if rec := do(h.Stop, http.MethodDelete, ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestWorkoutHandler_StopOutlivesClient(t *testing.T) {
	fw := &fakeWorkouts{}
	h := NewWorkoutHandler(fw, defaultPlan)
	do(h.Start, http.MethodPost, `{"exercise":"squats"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodDelete, "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Stop(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if fw.stopCtxErr != nil {
		t.Errorf("stop context err = %v, want nil after client hangup", fw.stopCtxErr)
	}
	if !fw.stopDeadline {
		t.Error("stop context has no deadline")
	}
}

type fakeHistory struct {
	logs      []store.WorkoutLog
	lastLimit int
}

func (f *fakeHistory) Recent(_ context.Context, limit int) []store.WorkoutLog {
	f.lastLimit = limit
	if limit < len(f.logs) {
		return f.logs[:limit]
	}
	return f.logs
}

func TestHistoryHandler_List(t *testing.T) {
	now := time.Date(2025, 4, 2, 18, 0, 0, 0, time.UTC)
	fh := &fakeHistory{logs: []store.WorkoutLog{
		{ID: "b", Exercise: "Squats", RepsLeft: 10, Timestamp: now},
		{ID: "a", Exercise: "Lunges", RepsRight: 8, Timestamp: now.Add(-time.Hour)},
	}}
	h := NewHistoryHandler(fh)

	tests := []struct {
		query      string
		wantStatus int
		wantLimit  int
		wantCount  int
	}{
		{"", http.StatusOK, DefaultLogLimit, 2},
		{"?limit=1", http.StatusOK, 1, 1},
		{"?limit=100000", http.StatusOK, MaxLogLimit, 2},
		{"?limit=0", http.StatusBadRequest, 0, 0},
		{"?limit=abc", http.StatusBadRequest, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			fh.lastLimit = 0
			rec := httptest.NewRecorder()
			h.List(rec, httptest.NewRequest(http.MethodGet, "/api/logs"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if fh.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", fh.lastLimit, tt.wantLimit)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				Logs  []store.WorkoutLog `json:"logs"`
				Count int                `json:"count"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Count != tt.wantCount || len(body.Logs) != tt.wantCount {
				t.Errorf("count = %d (%d logs), want %d", body.Count, len(body.Logs), tt.wantCount)
			}
			if body.Logs[0].ID != "b" {
				t.Errorf("first log = %s, want newest", body.Logs[0].ID)
			}
		})
	}
}

func TestHistoryHandler_EmptyIsArray(t *testing.T) {
	h := NewHistoryHandler(&fakeHistory{logs: []store.WorkoutLog{}})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/logs", nil))

	if !strings.Contains(rec.Body.String(), `"logs":[]`) {
		t.Errorf("body = %s, want an empty array", rec.Body)
	}
}

func TestVoiceHandler(t *testing.T) {
	s := newTestStore(t)
	a := speech.NewAnnouncer(nil, speech.DefaultSettings())
	h := NewVoiceHandler(a, s.Settings())

	t.Run("catalog", func(t *testing.T) {
		rec := do(h.Voices, http.MethodGet, "")
		var body struct {
			DefaultLang string            `json:"default_lang"`
			Languages   []speech.Language `json:"languages"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.DefaultLang != "hi-IN" || len(body.Languages) != 2 {
			t.Errorf("catalog = %+v", body)
		}
	})

	t.Run("update persists", func(t *testing.T) {
		rec := do(h.PutSettings, http.MethodPut,
			`{"enabled":true,"lang":"en-US","voice":"Microsoft David - English (United States)"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body)
		}

		var saved speech.Settings
		if err := s.Settings().GetJSON(VoiceSettingsKey, &saved); err != nil {
			t.Fatalf("GetJSON: %v", err)
		}
		if saved.Lang != "en-US" || saved.Voice != "Microsoft David - English (United States)" {
			t.Errorf("saved = %+v", saved)
		}
		if a.Settings() != saved {
			t.Errorf("announcer = %+v, want %+v", a.Settings(), saved)
		}
	})

	t.Run("unknown voice falls back", func(t *testing.T) {
		rec := do(h.PutSettings, http.MethodPut, `{"enabled":false,"lang":"hi-IN","voice":"Nope"}`)
		var got speech.Settings
		json.NewDecoder(rec.Body).Decode(&got)
		if got.Voice != speech.DefaultVoice("hi-IN") || got.Enabled {
			t.Errorf("applied = %+v", got)
		}
	})

	t.Run("unknown language rejected", func(t *testing.T) {
		rec := do(h.PutSettings, http.MethodPut, `{"enabled":true,"lang":"xx-XX"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
		if a.Settings().Lang != "hi-IN" {
			t.Errorf("settings changed on a rejected update: %+v", a.Settings())
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := do(h.GetSettings, http.MethodGet, "")
		if !bytes.Contains(rec.Body.Bytes(), []byte(`"lang":"hi-IN"`)) {
			t.Errorf("body = %s", rec.Body)
		}
	})
}

func TestExercises(t *testing.T) {
	rec := do(Exercises, http.MethodGet, "")

	var body struct {
		Exercises []struct {
			Exercise    string  `json:"exercise"`
			DisplayName string  `json:"display_name"`
			Limb        string  `json:"limb"`
			Down        float64 `json:"down_threshold"`
		} `json:"exercises"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Exercises) != len(rep.Exercises) {
		t.Fatalf("got %d exercises, want %d", len(body.Exercises), len(rep.Exercises))
	}
	first := body.Exercises[0]
	if first.Exercise != "bicep_curls" || first.DisplayName != "Bicep Curls" || first.Limb != "arm" || first.Down != 30 {
		t.Errorf("first exercise = %+v", first)
	}
}
