package config

import (
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("MY_DIR", "pictures")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tilde", "~/images/cat.jpg", "/home/tester/images/cat.jpg"},
		{"env var", "/data/$MY_DIR/cat.jpg", "/data/pictures/cat.jpg"},
		{"plain", "/tmp/cat.jpg", "/tmp/cat.jpg"},
		{"empty", "", ""},
		{"cleaned", "/tmp//a/../cat.jpg", "/tmp/cat.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetConfigFilePath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	want := filepath.Join("/home/tester", ".config", "metanoia", "config.toml")
	if got := GetConfigFilePath(); got != want {
		t.Errorf("GetConfigFilePath() = %q, want %q", got, want)
	}
}
