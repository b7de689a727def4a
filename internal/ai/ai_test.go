package ai

import "testing"

func TestClip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "zero limit yields empty",
			input:  "resume text",
			limit:  0,
			expect: "",
		},
		{
			name:   "under limit unchanged",
			input:  "short",
			limit:  100,
			expect: "short",
		},
		{
			name:   "cut at limit",
			input:  "abcdefgh",
			limit:  4,
			expect: "abcd",
		},
		{
			name:   "cut respects rune boundaries",
			input:  "résumé",
			limit:  3,
			expect: "rés",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Clip(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
