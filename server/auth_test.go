package server

import "testing"

func TestValidPIN(t *testing.T) {
	tests := []struct {
		pin  string
		want bool
	}{
		{"0205", true},
		{"0606", true},
		{"12345678", true},
		{"123", false},
		{"123456789", false},
		{"12a4", false},
		{"", false},
		{"12 4", false},
	}

	for _, tt := range tests {
		t.Run(tt.pin, func(t *testing.T) {
			if got := validPIN(tt.pin); got != tt.want {
				t.Errorf("validPIN(%q) = %v, want %v", tt.pin, got, tt.want)
			}
		})
	}
}
