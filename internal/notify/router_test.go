package notify

import "testing"

func TestRouterMatchesScopeAndAllowlist(t *testing.T) {
	targets := []Target{
		{Platform: "webhook", Endpoint: "a", ScopeType: "all", Enabled: true},
		{Platform: "webhook", Endpoint: "b", ScopeType: "tournament", ScopeValue: "trn_1", Enabled: true},
		{Platform: "webhook", Endpoint: "c", ScopeType: "game_type", ScopeValue: "Bingo", Enabled: true},
		{Platform: "webhook", Endpoint: "d", ScopeType: "all", Enabled: true, EventAllowlist: []string{"tournament_finished"}},
		{Platform: "webhook", Endpoint: "e", ScopeType: "all", Enabled: false},
	}
	cases := []struct {
		name string
		ev   Notification
		want []string
	}{
		{"poker start", Notification{EventType: "tournament_started", TournamentID: "trn_1", GameType: "poker"}, []string{"a", "b"}},
		{"bingo finish", Notification{EventType: "tournament_finished", TournamentID: "trn_2", GameType: "bingo"}, []string{"a", "c", "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Router{}.MatchTargets(targets, tc.ev)
			if len(got) != len(tc.want) {
				t.Fatalf("matched %d targets, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i].Endpoint != tc.want[i] {
					t.Fatalf("target %d = %s, want %s", i, got[i].Endpoint, tc.want[i])
				}
			}
		})
	}
}
