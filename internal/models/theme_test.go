package models

import "testing"

func TestThemeValid(t *testing.T) {
	tests := []struct {
		name   string
		colors [3]string
		want   bool
	}{
		{"lowercase hex", [3]string{"#aabbcc", "#112233", "#f0f0f0"}, true},
		{"uppercase hex", [3]string{"#AABBCC", "#112233", "#F0F0F0"}, true},
		{"missing hash", [3]string{"aabbcc", "#112233", "#f0f0f0"}, false},
		{"too short", [3]string{"#abc", "#112233", "#f0f0f0"}, false},
		{"too long", [3]string{"#aabbccdd", "#112233", "#f0f0f0"}, false},
		{"named color", [3]string{"#aabbcc", "red", "#f0f0f0"}, false},
		{"empty", [3]string{"", "#112233", "#f0f0f0"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theme := &Theme{Color1: tt.colors[0], Color2: tt.colors[1], Color3: tt.colors[2]}
			if got := theme.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v for %v", got, tt.want, tt.colors)
			}
		})
	}
}
