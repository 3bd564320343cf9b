package homepage

import (
	"errors"
	"testing"
)

func TestParseBookmarks(t *testing.T) {
	yamlContent := `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Docs:
        - abbr: DO
          href: https://go.dev/doc
- Social:
    - Reddit:
        - icon: reddit.png
          href: https://reddit.com/
`

	entries, skipped, err := Parse(FormatBookmarks, []byte(yamlContent))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("Parse() skipped = %v, want 0", skipped)
	}
	if len(entries) != 3 {
		t.Fatalf("Parse() returned %v entries, want 3", len(entries))
	}

	// Keys inside one list item are sorted, list order is kept
	want := []string{"Github", "Docs", "Reddit"}
	for i, title := range want {
		if entries[i].Title != title {
			t.Errorf("entries[%d].Title = %v, want %v", i, entries[i].Title, title)
		}
	}
}

func TestParseServicesWithTemplateVariables(t *testing.T) {
	yamlContent := `---
- Infrastructure:
    - AdGuard Home:
        icon: adguard-home.svg
        href: {{HOMEPAGE_VAR_ADGUARD_URL}}
        description: Test
    - Traefik:
        href: https://traefik.domain.ext
`

	entries, skipped, err := Parse(FormatServices, []byte(yamlContent))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(entries) != 1 || entries[0].URL != "https://traefik.domain.ext" {
		t.Errorf("Parse() entries = %+v, want only traefik", entries)
	}
	if skipped != 1 {
		t.Errorf("Parse() skipped = %v, want 1", skipped)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, _, err := Parse(FormatBookmarks, []byte("- [unclosed")); err == nil {
		t.Error("Parse() with invalid yaml should return error")
	}
	if _, _, err := Parse(FormatServices, []byte("key: value")); err == nil {
		t.Error("Parse() with a mapping root should return error")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatBookmarks, false},
		{"bookmarks", FormatBookmarks, false},
		{"services", FormatServices, false},
		{"opml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, _, err := Parse(Format("opml"), nil); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Parse(opml) error = %v, want ErrUnknownFormat", err)
	}
}

func TestStripTemplateVariablesFunc(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "single template variable",
			input:    []byte("url: {{HOMEPAGE_VAR_URL}}"),
			expected: "url: \"\"",
		},
		{
			name:     "two template variables",
			input:    []byte("a: {{A}}\nb: {{B}}"),
			expected: "a: \"\"\nb: \"\"",
		},
		{
			name:     "no template variables",
			input:    []byte("plain text"),
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTemplateVariables(tt.input)
			if string(result) != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}
