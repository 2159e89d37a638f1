package wowaudit

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/wishlist-sync/internal/schemas"
	"github.com/jonathan/wishlist-sync/internal/types"
)

const wishlistsBody = `{
	"characters": [
		{
			"id": 1,
			"name": "Zulrak",
			"instances": [
				{
					"id": 38,
					"name": "Nerub-ar Palace",
					"difficulties": [
						{"difficulty": "normal", "wishlist": {"updated_at": "2025-01-10T09:00:00.000+01:00"}},
						{"difficulty": "heroic", "wishlist": {"updated_at": null}}
					]
				},
				{
					"id": 42,
					"name": "Liberation of Undermine",
					"difficulties": [
						{"difficulty": "normal", "wishlist": null},
						{"difficulty": "heroic", "wishlist": {"updated_at": "2025-01-11T18:30:00Z"}}
					]
				}
			]
		},
		{
			"id": 2,
			"name": "Mirael",
			"instances": [
				{
					"id": 42,
					"name": "Liberation of Undermine",
					"difficulties": [
						{"difficulty": "mythic", "wishlist": {"updated_at": "2025-01-12T08:00:00Z"}}
					]
				}
			]
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{BaseURL: server.URL, Token: "secret-token"})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

func TestRegion(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://wowaudit.com/eu/twisting-nether/raid-team/main", "eu", true},
		{"https://wowaudit.com/us/area-52/", "us", true},
		{"https://wowaudit.com/eu", "", false},
		{"not a url", "", false},
	}
	for _, tt := range tests {
		got, ok := Region(tt.url)
		assert.Equal(t, tt.wantOK, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestFetchTeamInfo_SendsToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/team", r.URL.Path)
		assert.Equal(t, "secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"id": 7, "name": "Main", "url": "https://wowaudit.com/eu/realm/main"}`))
	})

	team, err := client.FetchTeamInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Main", team.Name)
	region, ok := Region(team.URL)
	assert.True(t, ok)
	assert.Equal(t, "eu", region)
}

func TestFetchCurrentRaidInstance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/instances", r.URL.Path)
		assert.Equal(t, "live", r.URL.Query().Get("kind"))
		_, _ = w.Write([]byte(`[
			{"id": 38, "name": "Nerub-ar Palace", "current": false},
			{"id": 42, "name": "Liberation of Undermine", "current": true}
		]`))
	})

	raid, err := client.FetchCurrentRaidInstance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, raid)
	assert.Equal(t, 42, raid.ID)
	assert.True(t, raid.IsCurrentTier)
}

func TestFetchCurrentRaidInstance_NoneCurrent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 38, "name": "Nerub-ar Palace", "current": false}]`))
	})

	raid, err := client.FetchCurrentRaidInstance(context.Background())
	require.NoError(t, err)
	assert.Nil(t, raid)
}

func TestFetchCharacters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "Zulrak", "realm": "Twisting Nether", "role": "Melee"},
			{"id": 2, "name": "Mirael", "realm": "Silvermoon", "role": "Heal"}
		]`))
	})

	characters, err := client.FetchCharacters(context.Background())
	require.NoError(t, err)
	require.Len(t, characters, 2)
	assert.Equal(t, types.Character{ID: 2, Name: "Mirael", Realm: "Silvermoon", Role: "Heal"}, characters[1])
}

func TestFetch_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.FetchCharacters(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "401")
}

func TestFetchWishlists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(wishlistsBody))
	})

	wishlists, err := client.FetchWishlists(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []types.RaidInstance{
		{ID: 38, Name: "Nerub-ar Palace"},
		{ID: 42, Name: "Liberation of Undermine"},
	}, wishlists.Raids())
	assert.Equal(t, []types.Difficulty{"normal", "heroic", "mythic"}, wishlists.Difficulties())

	history := wishlists.History()
	normal := history.Cell(1, 38, "normal")
	require.Len(t, normal, 1)
	assert.Equal(t, DefaultConfigurationName, normal[0].Configuration)
	require.NotNil(t, normal[0].UpdatedAt)
	assert.True(t, time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC).Equal(*normal[0].UpdatedAt))

	heroic := history.Cell(1, 38, "heroic")
	require.Len(t, heroic, 1)
	assert.Nil(t, heroic[0].UpdatedAt)

	assert.Nil(t, history.Cell(1, 42, "normal")[0].UpdatedAt)
	assert.Nil(t, history.Cell(2, 38, "normal"), "missing cells stay missing")
	assert.NotNil(t, history.Cell(2, 42, "mythic")[0].UpdatedAt)
}

func TestFetchWishlists_TimestampsPerConfiguration(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"characters": [{
			"id": 1,
			"name": "Zulrak",
			"instances": [{
				"id": 38,
				"name": "Nerub-ar Palace",
				"difficulties": [
					{"difficulty": "heroic", "wishlist": {"updated_at": {
						"Single Target": "2025-01-10T09:00:00.000+00:00",
						"Council": null,
						"Dungeon Slice": "2025-01-12T20:15:00.000+00:00"
					}}},
					{"difficulty": "mythic", "wishlist": {"updated_at": {}}}
				]
			}]
		}]}`))
	})

	wishlists, err := client.FetchWishlists(context.Background())
	require.NoError(t, err)

	heroic := wishlists.History().Cell(1, 38, "heroic")
	require.Len(t, heroic, 3)
	assert.Equal(t, "Council", heroic[0].Configuration)
	assert.Nil(t, heroic[0].UpdatedAt)
	assert.Equal(t, "Dungeon Slice", heroic[1].Configuration)
	require.NotNil(t, heroic[1].UpdatedAt)
	assert.True(t, time.Date(2025, 1, 12, 20, 15, 0, 0, time.UTC).Equal(*heroic[1].UpdatedAt))
	assert.Equal(t, "Single Target", heroic[2].Configuration)
	require.NotNil(t, heroic[2].UpdatedAt)
	assert.True(t, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC).Equal(*heroic[2].UpdatedAt))

	mythic := wishlists.History().Cell(1, 38, "mythic")
	require.Len(t, mythic, 1)
	assert.Nil(t, mythic[0].UpdatedAt)
}

func TestUpdatedAt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want UpdatedAt
	}{
		{"null", `null`, nil},
		{"bare timestamp", `"2025-01-10T09:00:00Z"`, UpdatedAt{DefaultConfigurationName: ptr("2025-01-10T09:00:00Z")}},
		{"object", `{"Council": null, "Single Target": "2025-01-10T09:00:00Z"}`,
			UpdatedAt{"Council": nil, "Single Target": ptr("2025-01-10T09:00:00Z")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got UpdatedAt
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	var got UpdatedAt
	assert.Error(t, json.Unmarshal([]byte(`42`), &got))
}

func TestFetchWishlists_RejectsUnexpectedShape(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"characters": [{"id": 1, "instances": [{"id": 38}]}]}`))
	})

	_, err := client.FetchWishlists(context.Background())
	require.Error(t, err)

	var valErr *schemas.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestSubmitWishlist(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/wishlists", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"created": true}`))
	})

	err := client.SubmitWishlist(context.Background(),
		types.Character{ID: 1, Name: "Zulrak", Realm: "Twisting Nether"}, "abc123")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"report_id":            "abc123",
		"character_id":         float64(1),
		"character_name":       "Zulrak",
		"configuration_name":   "Single Target",
		"replace_manual_edits": true,
		"clear_conduits":       true,
	}, got)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2025-01-10T09:00:00.000+01:00", ptr(time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))},
		{"2025-01-10T09:00:00Z", ptr(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))},
		{"2025-01-10T09:00:00.5", ptr(time.Date(2025, 1, 10, 9, 0, 0, 500000000, time.UTC))},
		{"", nil},
		{"yesterday", nil},
	}
	for _, tt := range tests {
		got := ParseTimestamp(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		assert.True(t, tt.want.Equal(*got), tt.in)
		assert.Equal(t, time.UTC, got.Location(), tt.in)
	}
}

func ptr[T any](v T) *T {
	return &v
}
