// Package history records finished workouts locally and, when configured, in Firestore.
package history

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/store"
)

// Local is the on-disk log store.
type Local interface {
	Create(l *store.WorkoutLog) error
	List(userID string, limit int) ([]*store.WorkoutLog, error)
}

// Remote is the cloud log store.
type Remote interface {
	Save(ctx context.Context, l *store.WorkoutLog) error
	List(ctx context.Context, limit int) ([]*store.WorkoutLog, error)
}

// Recorder is a best-effort log sink. Failures are logged and reported as
// false or an empty history; they never surface as errors.
type Recorder struct {
	local   Local
	remote  Remote
	userID  string
	metrics *metrics.Manager
}

// NewRecorder creates a recorder. Either store may be nil.
func NewRecorder(local Local, remote Remote, userID string, m *metrics.Manager) *Recorder {
	return &Recorder{local: local, remote: remote, userID: userID, metrics: m}
}

// HasRemote reports whether a cloud store is configured.
func (r *Recorder) HasRemote() bool {
	return r.remote != nil
}

// Save writes the log to the local store, then the remote one.
// It reports true only if every configured store accepted it.
func (r *Recorder) Save(ctx context.Context, l store.WorkoutLog) bool {
	l.UserID = r.userID
	ok := r.local != nil || r.remote != nil

	if r.local != nil {
		if err := r.local.Create(&l); err != nil {
			log.WithField("exercise", l.Exercise).Errorf("history: save local log: %s", err)
			r.count("local", "error")
			ok = false
		} else {
			r.count("local", "ok")
		}
	}

	if r.remote != nil {
		remote := l
		remote.ID = ""
		if err := r.remote.Save(ctx, &remote); err != nil {
			log.WithField("exercise", l.Exercise).Errorf("history: save remote log: %s", err)
			r.count("remote", "error")
			ok = false
		} else {
			r.count("remote", "ok")
		}
	}

	return ok
}

// Recent returns up to limit logs, most recent first. The remote store is
// preferred; the local one is used when there is no remote or it fails.
func (r *Recorder) Recent(ctx context.Context, limit int) []store.WorkoutLog {
	if r.remote != nil {
		logs, err := r.remote.List(ctx, limit)
		if err == nil {
			return values(logs)
		}
		log.Warnf("history: load remote logs, falling back to local: %s", err)
	}

	if r.local == nil {
		return []store.WorkoutLog{}
	}

	logs, err := r.local.List(r.userID, limit)
	if err != nil {
		log.Errorf("history: load local logs: %s", err)
		return []store.WorkoutLog{}
	}
	return values(logs)
}

func (r *Recorder) count(target, outcome string) {
	if r.metrics != nil {
		r.metrics.CounterLogSaves.WithLabelValues(target, outcome).Inc()
	}
}

func values(logs []*store.WorkoutLog) []store.WorkoutLog {
	out := make([]store.WorkoutLog, 0, len(logs))
	for _, l := range logs {
		if l != nil {
			out = append(out, *l)
		}
	}
	return out
}
