package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mauv0809/padel-weekly/internal/attendance"
	"github.com/mauv0809/padel-weekly/internal/auth"
	"github.com/mauv0809/padel-weekly/internal/config"
	"github.com/mauv0809/padel-weekly/internal/demo"
	"github.com/mauv0809/padel-weekly/internal/elo"
	"github.com/mauv0809/padel-weekly/internal/events"
	"github.com/mauv0809/padel-weekly/internal/gamification"
	"github.com/mauv0809/padel-weekly/internal/group"
	"github.com/mauv0809/padel-weekly/internal/matches"
	"github.com/mauv0809/padel-weekly/internal/metrics"
	"github.com/mauv0809/padel-weekly/internal/stats"
	"github.com/mauv0809/padel-weekly/internal/tasks"
	"github.com/mauv0809/padel-weekly/internal/teams"
	"github.com/mauv0809/padel-weekly/internal/testutil"
	"github.com/mauv0809/padel-weekly/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

type liveServer struct {
	*Server
	db         *sql.DB
	groupID    string
	eventID    string
	occurrence string
	players    []string
	token      string
}

func demoReader(t *testing.T) *demo.Reader {
	t.Helper()
	r, err := demo.New(time.UTC)
	require.NoError(t, err)
	return r
}

// setupDemoServer builds a server without a database.
func setupDemoServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(Deps{
		Cfg:   config.Config{JWTSecret: testJWTSecret, Timezone: "UTC"},
		Views: views.Router{Demo: demoReader(t), DemoSlug: demo.Slug},
	})
}

// setupLiveServer builds a server over a migrated in-memory database with
// one group, four players and an occurrence two days out.
func setupLiveServer(t *testing.T) liveServer {
	t.Helper()
	db := testutil.NewDB(t)
	groupID := testutil.Group(t, db, "padel")
	testutil.Member(t, db, groupID, "user-1")
	eventID := testutil.Event(t, db, groupID, 4, "20:00", 4)
	occurrenceID := testutil.Occurrence(t, db, groupID, eventID, time.Now().Add(48*time.Hour))
	var players []string
	for _, name := range []string{"Ana", "Bea", "Carla", "Dani"} {
		players = append(players, testutil.Player(t, db, groupID, name))
	}

	m := metrics.NewMock()
	groups := group.New(db)
	occurrences := events.New(db)
	badges := gamification.New(db)
	ratings := elo.New(db)
	eventSvc := events.NewService(occurrences, groups, m, time.UTC)
	attendanceSvc := attendance.NewService(attendance.New(db), occurrences, groups, m, nil)
	matchSvc := matches.NewService(db, matches.Deps{
		Matches:     matches.New(db),
		Occurrences: occurrences,
		Attendance:  attendance.New(db),
		Groups:      groups,
		Ratings:     ratings,
		Dispatcher:  &tasks.Recorder{},
		Metrics:     m,
	})
	gamificationSvc := gamification.NewService(badges, groups, ratings, time.UTC)
	live := views.NewService(views.Deps{
		Groups:       groups,
		Events:       eventSvc,
		Attendance:   attendanceSvc,
		Matches:      matchSvc,
		Stats:        stats.NewService(stats.New(db), ratings, groups, badges),
		Gamification: gamificationSvc,
	})

	tokens := auth.NewTokens(testJWTSecret)
	token, err := tokens.Issue("user-1", time.Hour)
	require.NoError(t, err)

	server := NewServer(Deps{
		Cfg:          config.Config{JWTSecret: testJWTSecret, Timezone: "UTC", WeeksAhead: 4},
		DB:           db,
		Views:        views.Router{Live: live, DemoSlug: demo.Slug},
		Groups:       group.NewService(groups),
		Events:       eventSvc,
		Attendance:   attendanceSvc,
		Teams:        teams.NewService(occurrences, attendance.New(db), groups, ratings),
		Matches:      matchSvc,
		Gamification: gamificationSvc,
		Tokens:       tokens,
	})
	return liveServer{Server: server, db: db, groupID: groupID, eventID: eventID, occurrence: occurrenceID, players: players, token: token}
}

func (s liveServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheckHandler(t *testing.T) {
	rr := serve(setupDemoServer(t), "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK!", rr.Body.String())

	rr = serve(setupLiveServer(t).Server, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestDemoServer(t *testing.T) {
	s := setupDemoServer(t)

	rr := serve(s, "GET", "/api/g/demo/", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var dash views.Dashboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dash))
	assert.True(t, dash.Demo)
	assert.Equal(t, "Demo Padel Club", dash.Group.Name)
	assert.NotEmpty(t, dash.Top)

	for _, path := range []string{"/api/g/demo/ranking", "/api/g/demo/matches?limit=3", "/api/g/demo/players", "/api/g/demo/pairs?min=2", "/api/g/demo/challenges", "/api/g/demo/events"} {
		assert.Equal(t, http.StatusOK, serve(s, "GET", path, "").Code, path)
	}

	rr = serve(s, "POST", "/api/g/demo/players", `{"name":"Zoe"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = serve(s, "POST", "/api/groups/"+dash.Group.ID+"/skip-week", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	assert.Equal(t, http.StatusNotFound, serve(s, "GET", "/api/g/other/", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(s, "GET", "/api/g/demo/matches?limit=x", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(s, "POST", "/slack/commands", "").Code)
}

func TestLiveServer_Authentication(t *testing.T) {
	s := setupLiveServer(t)

	assert.Equal(t, http.StatusUnauthorized, serve(s.Server, "GET", "/api/g/padel/", "").Code)

	req := httptest.NewRequest("GET", "/api/g/padel/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	outsider, err := s.Tokens.Issue("user-2", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/api/g/padel/", nil)
	req.Header.Set("Authorization", "Bearer "+outsider)
	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, "GET", "/api/g/padel/", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var dash views.Dashboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dash))
	assert.False(t, dash.Demo)
	require.NotNil(t, dash.Next)
	assert.Equal(t, s.occurrence, dash.Next.Occurrence.ID)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/g/demo/", "").Code, "no canned data next to a database")
}

func TestLiveServer_DemoSlugIsAnOrdinaryGroup(t *testing.T) {
	s := setupLiveServer(t)
	groupID := testutil.Group(t, s.db, demo.Slug)
	testutil.Member(t, s.db, groupID, "user-1")
	eventID := testutil.Event(t, s.db, groupID, 4, "20:00", 4)
	occurrenceID := testutil.Occurrence(t, s.db, groupID, eventID, time.Now().Add(48*time.Hour))
	playerID := testutil.Player(t, s.db, groupID, "Zoe")

	rr := s.do(t, "PUT", "/api/g/demo/occurrences/"+occurrenceID+"/attendance", `{"player_id":"`+playerID+`","status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, "GET", "/api/g/demo/", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var dash views.Dashboard
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dash))
	assert.False(t, dash.Demo)
	assert.Equal(t, groupID, dash.Group.ID)
}

func TestLiveServer_SetAttendance(t *testing.T) {
	s := setupLiveServer(t)
	path := "/api/g/padel/occurrences/" + s.occurrence + "/attendance"

	rr := s.do(t, "PUT", path, `{"player_id":"`+s.players[0]+`","status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp attendanceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, attendance.StatusConfirmed, resp.Attendance.Status)
	assert.Equal(t, attendance.SourceWeb, resp.Attendance.Source)
	assert.Equal(t, 1, resp.Summary.ConfirmedCount)
	assert.Equal(t, 3, resp.Summary.SpotsAvailable)

	rr = s.do(t, "PUT", path, `{"player_id":"`+s.players[1]+`","status":"maybe","source":"admin"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, attendance.SourceWeb, resp.Attendance.Source, "members only write as web")

	// Repeating the same status keeps a single row.
	rr = s.do(t, "PUT", path, `{"player_id":"`+s.players[0]+`","status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Summary.ConfirmedCount)

	rr = s.do(t, "PUT", path, `{"player_id":"`+s.players[0]+`","status":"going"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"oneof`)

	rr = s.do(t, "PUT", path, `{"player_id":"`+s.players[0]+`","status":"confirmed","note":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLiveServer_Transitions(t *testing.T) {
	s := setupLiveServer(t)
	base := "/api/g/padel/occurrences/" + s.occurrence

	rr := s.do(t, "POST", base+"/lock", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp transitionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, events.StatusLocked, resp.Occurrence.Status)

	rr = s.do(t, "POST", base+"/cancel", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, events.StatusCancelled, resp.Occurrence.Status)

	rr = s.do(t, "PUT", base+"/attendance", `{"player_id":"`+s.players[1]+`","status":"confirmed"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, "POST", base+"/lock", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLiveServer_ForeignIDsAreNotFound(t *testing.T) {
	s := setupLiveServer(t)
	otherGroup := testutil.Group(t, s.db, "other")
	testutil.Member(t, s.db, otherGroup, "user-1")
	otherEvent := testutil.Event(t, s.db, otherGroup, 2, "19:00", 4)
	otherOcc := testutil.Occurrence(t, s.db, otherGroup, otherEvent, time.Now().Add(24*time.Hour))

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/g/padel/occurrences/"+otherOcc, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "POST", "/api/g/padel/occurrences/"+otherOcc+"/lock", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "POST", "/api/g/padel/events/"+otherEvent+"/generate", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, "GET", "/api/g/other/occurrences/"+otherOcc, "").Code)
}

func TestLiveServer_MatchFlow(t *testing.T) {
	s := setupLiveServer(t)
	for _, p := range s.players {
		testutil.Attend(t, s.db, s.groupID, s.occurrence, p, "confirmed")
	}
	base := "/api/g/padel/occurrences/" + s.occurrence

	rr := s.do(t, "GET", base+"/balance", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var proposal teams.Proposal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &proposal))
	assert.True(t, proposal.Complete())

	moved := proposal.TeamA.Players[0].ID
	body, err := json.Marshal(moveRequest{Proposal: proposal, PlayerID: moved, To: teams.SideBench})
	require.NoError(t, err)
	rr = s.do(t, "POST", base+"/balance/move", string(body))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var adjusted teams.Proposal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &adjusted))
	require.Len(t, adjusted.Bench, 1)
	assert.Equal(t, moved, adjusted.Bench[0].ID)

	a, b := proposal.IDs()
	split, err := json.Marshal(matches.CreateInput{Split: matches.Split{TeamA: a, TeamB: b}})
	require.NoError(t, err)
	rr = s.do(t, "POST", base+"/match", string(split))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created matches.Created
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.NotNil(t, created.Match)

	rr = s.do(t, "POST", base+"/match", string(split))
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, "POST", "/api/g/padel/matches/"+created.Match.ID+"/result", `{"sets":[[6,3],[6,4]]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Match.Score)

	rr = s.do(t, "POST", "/api/g/padel/matches/"+created.Match.ID+"/result", `{"sets":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, "GET", "/api/g/padel/matches", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []matches.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestLiveServer_Players(t *testing.T) {
	s := setupLiveServer(t)

	rr := s.do(t, "POST", "/api/g/padel/players", `{"name":"Eva","status":"invite"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var p group.Player
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, group.PlayerInvite, p.Status)

	rr = s.do(t, "PATCH", "/api/g/padel/players/"+p.ID, `{"status":"usual"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, group.PlayerUsual, p.Status)

	rr = s.do(t, "POST", "/api/g/padel/players", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, "GET", "/api/g/padel/players", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var players []group.Player
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &players))
	assert.Len(t, players, 5)
}

func TestLiveServer_GenerateAndSkipWeek(t *testing.T) {
	s := setupLiveServer(t)

	rr := s.do(t, "POST", "/api/g/padel/events/"+s.eventID+"/generate", `{"weeks_ahead":2}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, "POST", "/api/g/padel/events/"+s.eventID+"/generate", `{"weeks_ahead":100}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, "POST", "/api/g/padel/events/not-a-uuid/generate", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid event id")

	rr = s.do(t, "POST", "/api/g/padel/events/"+uuid.NewString()+"/generate", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, "POST", "/api/groups/"+s.groupID+"/skip-week", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var skipped skipWeekResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &skipped))
	assert.True(t, skipped.Skipped)

	rr = s.do(t, "POST", "/api/groups/"+s.groupID+"/skip-week", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &skipped))
	assert.False(t, skipped.Skipped)

	rr = s.do(t, "POST", "/api/groups/"+s.groupID+"/skip-week", `{"week_start":"2001-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLiveServer_PlaytomicSyncNotConfigured(t *testing.T) {
	s := setupLiveServer(t)
	rr := s.do(t, "POST", "/api/admin/playtomic/sync", `{"group_id":"`+s.groupID+`"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
