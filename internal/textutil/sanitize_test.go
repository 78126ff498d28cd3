package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Game (USA)", "Game (USA)"},
		{"Ico / Shadow of the Colossus", "Ico - Shadow of the Colossus"},
		{`What's "This"?`, "What's This"},
		{"Akumajou Dracula X: Gekka no Yasoukyoku", "Akumajou Dracula X- Gekka no Yasoukyoku"},
		{"A:B*C", "A-BC"},
		{"  padded   name  ", "padded name"},
		{"Dr. Mario 64.", "Dr. Mario 64"},
		{"tab\there", "tab here"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"PlayStation 2", "playstation_2"},
		{"", "unknown"},
		{"___", "unknown"},
		{"GBA-dump_01", "gba-dump_01"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
