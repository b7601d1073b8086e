package playtomic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rafa-garcia/go-playtomic-api/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSpecificMatch(t *testing.T) {
	// Sample JSON response from the Playtomic API
	mockJSONResponse := `{
		"owner_id": "user-123",
		"start_date": "2026-03-05T18:00:00",
		"end_date": "2026-03-05T19:30:00",
		"status": "CONFIRMED",
		"game_status": "PENDING",
		"resource_name": "Court 1",
		"price": "24 EUR",
		"tenant": { "tenant_id": "tenant-abc", "tenant_name": "Padel Club" },
		"teams": [{
			"team_id": "1",
			"players": [
				{ "user_id": "user-123", "name": "Player A" },
				{ "user_id": "user-456", "name": "Player B" }
			]
		}, {
			"team_id": "2",
			"players": [
				{ "user_id": "user-789", "name": "Player C" }
			]
		}]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/matches/match-abc", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, mockJSONResponse)
	}))
	defer server.Close()

	c := APIClient{
		httpClient: server.Client(),
		apiClient:  client.NewClient(), // not used by GetSpecificMatch
		BaseURL:    server.URL,
	}

	match, err := c.GetSpecificMatch(context.Background(), "match-abc")

	require.NoError(t, err)
	assert.Equal(t, "match-abc", match.MatchID)
	assert.Equal(t, "user-123", match.OwnerID)
	assert.Equal(t, "Court 1", match.ResourceName)
	assert.Equal(t, "24 EUR", match.Price)
	assert.Equal(t, GameStatusPending, match.GameStatus)
	assert.Equal(t, time.Date(2026, 3, 5, 18, 0, 0, 0, time.UTC), match.Start)
	assert.Equal(t, []string{"user-123", "user-456", "user-789"}, match.PlayerIDs())
}

func TestGetSpecificMatch_NotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	c := APIClient{httpClient: server.Client(), apiClient: client.NewClient(), BaseURL: server.URL}
	_, err := c.GetSpecificMatch(context.Background(), "missing")
	assert.ErrorContains(t, err, "404")
}
