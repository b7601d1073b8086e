// Package tasks describes best-effort side effects. A primary write is
// reported successful once its own rows are stored; tasks queued afterwards
// may fail without affecting it.
package tasks

import (
	"context"
	"fmt"
	"sync"
)

type Kind string

const (
	KindRefreshStats             Kind = "refresh_stats"
	KindCheckAchievements        Kind = "check_achievements"
	KindCheckSpecialAchievements Kind = "check_special_achievements"
	KindAutoClose                Kind = "auto_close"
	KindNotifyTeams              Kind = "notify_teams"
	KindNotifyResult             Kind = "notify_result"
)

// Task is a serialisable side effect request.
type Task struct {
	Kind     Kind   `json:"kind" msgpack:"kind"`
	GroupID  string `json:"group_id,omitempty" msgpack:"group_id,omitempty"`
	PlayerID string `json:"player_id,omitempty" msgpack:"player_id,omitempty"`
	MatchID  string `json:"match_id,omitempty" msgpack:"match_id,omitempty"`
	// DryRun suppresses external notifications.
	DryRun bool `json:"dry_run,omitempty" msgpack:"dry_run,omitempty"`
}

func (t Task) String() string {
	return fmt.Sprintf("%s(group=%s player=%s match=%s)", t.Kind, t.GroupID, t.PlayerID, t.MatchID)
}

// SoftFailure is a side effect that could not be queued or run. It is
// logged and reported, never returned as an error.
type SoftFailure struct {
	Task  Task   `json:"task"`
	Error string `json:"error"`
}

// Outcome reports what happened to a batch of dispatched tasks.
type Outcome struct {
	Queued int           `json:"queued"`
	Failed []SoftFailure `json:"failed,omitempty"`
}

// Fail records t as a soft failure.
func (o *Outcome) Fail(t Task, err error) {
	o.Failed = append(o.Failed, SoftFailure{Task: t, Error: err.Error()})
}

// Dispatcher hands tasks to a backend.
type Dispatcher interface {
	Dispatch(ctx context.Context, tasks ...Task) Outcome
}

type dryRunKey struct{}

// WithDryRun marks ctx so that tasks created from it skip external
// notifications.
func WithDryRun(ctx context.Context, dryRun bool) context.Context {
	return context.WithValue(ctx, dryRunKey{}, dryRun)
}

func IsDryRun(ctx context.Context) bool {
	v, _ := ctx.Value(dryRunKey{}).(bool)
	return v
}

// AfterMatch lists the side effects of storing a match or its result:
// a stats refresh and both achievement checks for every player.
func AfterMatch(ctx context.Context, groupID, matchID string, players []string) []Task {
	dry := IsDryRun(ctx)
	out := []Task{{Kind: KindRefreshStats, GroupID: groupID, MatchID: matchID, DryRun: dry}}
	for _, p := range players {
		out = append(out,
			Task{Kind: KindCheckAchievements, GroupID: groupID, PlayerID: p, MatchID: matchID, DryRun: dry},
			Task{Kind: KindCheckSpecialAchievements, GroupID: groupID, PlayerID: p, MatchID: matchID, DryRun: dry},
		)
	}
	return out
}

// ForMatch builds a single match-scoped task of the given kind.
func ForMatch(ctx context.Context, kind Kind, groupID, matchID string) Task {
	return Task{Kind: kind, GroupID: groupID, MatchID: matchID, DryRun: IsDryRun(ctx)}
}

// Recorder is an in-memory Dispatcher for tests.
type Recorder struct {
	mu    sync.Mutex
	Tasks []Task
	// FailKinds makes Dispatch report these kinds as failed.
	FailKinds map[Kind]error
}

func (r *Recorder) Dispatch(_ context.Context, ts ...Task) Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out Outcome
	for _, t := range ts {
		if err, ok := r.FailKinds[t.Kind]; ok {
			out.Fail(t, err)
			continue
		}
		r.Tasks = append(r.Tasks, t)
		out.Queued++
	}
	return out
}

// Kinds returns the recorded task kinds with their counts.
func (r *Recorder) Kinds() map[Kind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[Kind]int{}
	for _, t := range r.Tasks {
		out[t.Kind]++
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Tasks = nil
}
