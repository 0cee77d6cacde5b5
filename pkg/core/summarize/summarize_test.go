package summarize

import "testing"

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantTitle   string
		wantSummary string
		wantErr     bool
	}{
		{
			name:        "clean response",
			text:        "TITLE: Heat Transfer Basics\nSUMMARY: Heat flows from hot to cold bodies.",
			wantTitle:   "Heat Transfer Basics",
			wantSummary: "Heat flows from hot to cold bodies.",
		},
		{
			name:        "markdown emphasis stripped",
			text:        "**TITLE: Entropy**\n**SUMMARY: A measure of disorder.**",
			wantTitle:   "Entropy",
			wantSummary: "A measure of disorder.",
		},
		{
			name:        "multi-line summary joined",
			text:        "TITLE: Waves\nSUMMARY: Waves carry energy.\nThey need no medium in a vacuum.",
			wantTitle:   "Waves",
			wantSummary: "Waves carry energy. They need no medium in a vacuum.",
		},
		{
			name:        "leading whitespace tolerated",
			text:        "\n  TITLE: Optics\n  SUMMARY: Light bends at interfaces.\n",
			wantTitle:   "Optics",
			wantSummary: "Light bends at interfaces.",
		},
		{
			name:    "missing summary",
			text:    "TITLE: Incomplete",
			wantErr: true,
		},
		{
			name:    "empty response",
			text:    "",
			wantErr: true,
		},
		{
			name:    "freeform response",
			text:    "Here is your summary: the document is about heat.",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, summary, err := parseSummary(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseSummary(%q) succeeded, want error", tt.text)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSummary(%q): %v", tt.text, err)
			}
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if summary != tt.wantSummary {
				t.Errorf("summary = %q, want %q", summary, tt.wantSummary)
			}
		})
	}
}
