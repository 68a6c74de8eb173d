package cli

import (
	"io"
	"testing"
)

func TestApplySearchDefaultsFromConfig(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config.Search.Algorithm = "grasp"
	c.Config.Search.NumStarts = 8
	c.Config.Search.PenaltyDiscount = 4

	cmd := c.searchCommand()
	if err := cmd.Flags().Parse([]string{"--starts", "2"}); err != nil {
		t.Fatal(err)
	}

	opts := searchOpts{}
	c.applySearchDefaults(cmd, &opts)

	if opts.algorithm != "grasp" {
		t.Errorf("algorithm = %q, want config value grasp", opts.algorithm)
	}
	if opts.penalty != 4 {
		t.Errorf("penalty = %v, want config value 4", opts.penalty)
	}
	if opts.starts != 0 {
		t.Errorf("starts = %d, want the flag value left alone", opts.starts)
	}
}

func TestDefaultString(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		fallback string
		want     string
	}{
		{"empty", "", "boss", "boss"},
		{"whitespace", "  ", "boss", "boss"},
		{"set", "grasp", "boss", "grasp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultString(tt.s, tt.fallback); got != tt.want {
				t.Errorf("defaultString(%q, %q) = %q, want %q", tt.s, tt.fallback, got, tt.want)
			}
		})
	}
}
