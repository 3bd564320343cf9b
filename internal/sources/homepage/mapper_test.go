package homepage

import (
	"testing"
)

func TestMapperMapServices(t *testing.T) {
	config := ServicesConfig{
		{
			"Infrastructure": []map[string]ServiceProps{
				{
					"AdGuard Home": {
						Icon:        "adguard-home.svg",
						Href:        "https://adguard.domain.ext",
						Description: "Network-wide ads blocking",
					},
				},
				{
					"Traefik": {
						Icon: "traefik.svg",
						Href: "https://traefik.domain.ext",
					},
				},
				{
					"NoHref": {Icon: "x.svg"},
				},
			},
		},
	}

	entries, skipped := NewMapper().MapServices(config)
	if len(entries) != 2 {
		t.Fatalf("MapServices() returned %v entries, want 2", len(entries))
	}
	if skipped != 1 {
		t.Errorf("MapServices() skipped = %v, want 1", skipped)
	}
	if entries[0].Title != "AdGuard Home" || entries[0].URL != "https://adguard.domain.ext" {
		t.Errorf("entries[0] = %+v, want AdGuard Home", entries[0])
	}
}

func TestMapperMapBookmarks(t *testing.T) {
	config := BookmarksConfig{
		{
			"Developer": []map[string][]BookmarkEntry{
				{"Github": {{Abbr: "GH", Href: "https://github.com/"}}},
				{"": {{Abbr: "GO", Href: "https://go.dev"}}},
				{"   ": {{Href: "https://www.example.com/path"}}},
				{"Empty": {}},
				{"Relative": {{Href: "/just/a/path"}}},
				{"Duplicate": {{Href: "https://github.com/"}}},
			},
		},
	}

	entries, skipped := NewMapper().MapBookmarks(config)

	want := []struct{ url, title string }{
		{"https://github.com/", "Github"},
		{"https://go.dev", "GO"},
		{"https://www.example.com/path", "Example.com"},
	}
	if len(entries) != len(want) {
		t.Fatalf("MapBookmarks() returned %v entries, want %v: %+v", len(entries), len(want), entries)
	}
	for i, w := range want {
		if entries[i].URL != w.url || entries[i].Title != w.title {
			t.Errorf("entries[%d] = %+v, want %s %s", i, entries[i], w.url, w.title)
		}
	}
	if skipped != 3 {
		t.Errorf("MapBookmarks() skipped = %v, want 3", skipped)
	}
}

func TestMapperEmptyConfig(t *testing.T) {
	entries, skipped := NewMapper().MapBookmarks(nil)
	if entries == nil || len(entries) != 0 || skipped != 0 {
		t.Errorf("MapBookmarks(nil) = %v, %v, want empty", entries, skipped)
	}
}
