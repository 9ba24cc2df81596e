package git

import "testing"

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name    string
		ctype   string
		scope   string
		subject string
		body    string
		want    string
	}{
		{
			name:    "simple",
			ctype:   "feat",
			subject: "save blend",
			want:    "feat: save blend\n\nPowered-by: DuneBlend",
		},
		{
			name:    "with scope",
			ctype:   "fix",
			scope:   "blends",
			subject: "delete Old.md",
			want:    "fix(blends): delete Old.md\n\nPowered-by: DuneBlend",
		},
		{
			name:    "with body",
			ctype:   "feat",
			subject: "save blend",
			body:    "  3 sections  ",
			want:    "feat: save blend\n\n3 sections\n\nPowered-by: DuneBlend",
		},
		{
			name:    "default type",
			subject: "regenerate index",
			want:    "chore: regenerate index\n\nPowered-by: DuneBlend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMessage(tt.ctype, tt.scope, tt.subject, tt.body)
			if got != tt.want {
				t.Errorf("FormatMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendFooter(t *testing.T) {
	tests := map[string]string{
		"manual":                    "manual\n\nPowered-by: DuneBlend",
		"manual\n":                  "manual\n\nPowered-by: DuneBlend",
		"manual\n\nPowered-by: DuneBlend": "manual\n\nPowered-by: DuneBlend",
	}
	for in, want := range tests {
		if got := AppendFooter(in); got != want {
			t.Errorf("AppendFooter(%q) = %q, want %q", in, got, want)
		}
	}
}
