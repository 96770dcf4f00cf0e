package common

import "testing"

func TestHasAny(t *testing.T) {
	tests := []struct {
		s    string
		subs []string
		want bool
	}{
		{"Light Rain", []string{"rain", "drizzle"}, true},
		{"overcast clouds", []string{"CLOUD"}, true},
		{"clear sky", []string{"snow", "sleet"}, false},
		{"anything", nil, false},
	}

	for _, tt := range tests {
		if got := HasAny(tt.s, tt.subs...); got != tt.want {
			t.Errorf("HasAny(%q, %v) = %v, want %v", tt.s, tt.subs, got, tt.want)
		}
	}
}
