package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeState struct {
	stats  Stats
	users  map[string]User
	guilds map[string][]Guild
}

func (f *fakeState) Stats() Stats { return f.stats }

func (f *fakeState) User(id string) (User, bool) {
	u, ok := f.users[id]
	return u, ok
}

func (f *fakeState) MutualGuilds(userID string) []Guild { return f.guilds[userID] }

func newTestServer(state *fakeState) *httptest.Server {
	return httptest.NewServer(NewServer(":0", state).Router())
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return body
}

func TestStats(t *testing.T) {
	srv := newTestServer(&fakeState{stats: Stats{Guilds: 3, TotalUsers: 120, UniqueUsers: 95}})
	defer srv.Close()

	body := getJSON(t, srv.URL+"/stats", http.StatusOK)

	want := map[string]any{
		"guilds": float64(3),
		"users":  map[string]any{"total": float64(120), "unique": float64(95)},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestUserFound(t *testing.T) {
	global := "Andeh"
	srv := newTestServer(&fakeState{users: map[string]User{
		"123": {Username: "andeh", ID: "123", Avatar: "https://cdn.example/a.png", GlobalName: &global},
	}})
	defer srv.Close()

	body := getJSON(t, srv.URL+"/users/123", http.StatusOK)

	want := map[string]any{
		"username":    "andeh",
		"id":          "123",
		"avatar":      "https://cdn.example/a.png",
		"global_name": "Andeh",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestUserNotFound(t *testing.T) {
	srv := newTestServer(&fakeState{})
	defer srv.Close()

	body := getJSON(t, srv.URL+"/users/999", http.StatusNotFound)
	if body["error"] != "User not found." {
		t.Errorf(`error = %q, want "User not found."`, body["error"])
	}
}

func TestUserGuilds(t *testing.T) {
	srv := newTestServer(&fakeState{
		users: map[string]User{"123": {Username: "andeh", ID: "123"}},
		guilds: map[string][]Guild{"123": {{
			Channels: []Channel{
				{Category: &Category{ID: "10", Name: "Text Channels"}, ID: "11", Name: "general", Type: 0},
				{ID: "12", Name: "rules", Type: 0},
			},
			Emojis:      []string{},
			ID:          "1",
			Name:        "Exult",
			OwnerID:     "123",
			PremiumTier: 2,
			Roles:       []string{},
		}}},
	})
	defer srv.Close()

	body := getJSON(t, srv.URL+"/users/123/guilds", http.StatusOK)

	if body["username"] != "andeh" || body["id"] != "123" {
		t.Errorf("user fields missing from guilds response: %v", body)
	}
	guilds, ok := body["guilds"].([]any)
	if !ok || len(guilds) != 1 {
		t.Fatalf("guilds = %v, want one guild", body["guilds"])
	}
	guild := guilds[0].(map[string]any)
	if guild["name"] != "Exult" || guild["owner_id"] != "123" {
		t.Errorf("guild fields wrong: %v", guild)
	}
	channels := guild["channels"].([]any)
	if len(channels) != 2 {
		t.Fatalf("channels = %v, want two", channels)
	}
	first := channels[0].(map[string]any)
	if cat, ok := first["category"].(map[string]any); !ok || cat["name"] != "Text Channels" {
		t.Errorf("first channel category = %v, want Text Channels", first["category"])
	}
	second := channels[1].(map[string]any)
	if second["category"] != nil {
		t.Errorf("uncategorized channel category = %v, want null", second["category"])
	}
}

func TestUserGuildsNotFound(t *testing.T) {
	srv := newTestServer(&fakeState{})
	defer srv.Close()

	body := getJSON(t, srv.URL+"/users/999/guilds", http.StatusNotFound)
	if body["error"] != "User not found." {
		t.Errorf(`error = %q, want "User not found."`, body["error"])
	}
}

func TestUserGuildsEmpty(t *testing.T) {
	srv := newTestServer(&fakeState{users: map[string]User{"123": {Username: "andeh", ID: "123"}}})
	defer srv.Close()

	body := getJSON(t, srv.URL+"/users/123/guilds", http.StatusOK)
	guilds, ok := body["guilds"].([]any)
	if !ok {
		t.Fatalf("guilds is %T, want an array", body["guilds"])
	}
	if len(guilds) != 0 {
		t.Errorf("guilds = %v, want empty", guilds)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeState{})
	defer srv.Close()

	body := getJSON(t, srv.URL+"/health", http.StatusOK)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/stats":                   "/stats",
		"/users/1234567890":        "/users/:id",
		"/users/123/guilds":        "/users/:id/guilds",
		"/users/9876543210/guilds": "/users/:id/guilds",
		"/health":                  "/health",
	}
	for in, want := range cases {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
