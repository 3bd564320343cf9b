package homepage

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Mapper converts Homepage entries to bookmark inputs.
// Entries keep file order; duplicate URLs within one file are skipped.
type Mapper struct {
	seen map[string]struct{}
}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{seen: make(map[string]struct{})}
}

// MapBookmarks converts bookmarks.yaml. The bookmark name is the title.
func (m *Mapper) MapBookmarks(config BookmarksConfig) ([]domain.NewBookmark, int) {
	entries := make([]domain.NewBookmark, 0)
	skipped := 0

	for _, category := range config {
		for _, categoryName := range sortedKeys(category) {
			for _, bookmarkMap := range category[categoryName] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					entryList := bookmarkMap[bookmarkName]
					// Each bookmark has a list with a single entry
					if len(entryList) == 0 {
						skipped++
						continue
					}
					entry := entryList[0]

					title := bookmarkName
					if strings.TrimSpace(title) == "" {
						title = entry.Abbr
					}

					if nb, ok := m.entry(entry.Href, title); ok {
						entries = append(entries, nb)
					} else {
						skipped++
					}
				}
			}
		}
	}

	return entries, skipped
}

// MapServices converts services.yaml. The service name is the title.
func (m *Mapper) MapServices(config ServicesConfig) ([]domain.NewBookmark, int) {
	entries := make([]domain.NewBookmark, 0)
	skipped := 0

	for _, groupMap := range config {
		for _, groupName := range sortedKeys(groupMap) {
			for _, serviceMap := range groupMap[groupName] {
				for _, serviceName := range sortedKeys(serviceMap) {
					if nb, ok := m.entry(serviceMap[serviceName].Href, serviceName); ok {
						entries = append(entries, nb)
					} else {
						skipped++
					}
				}
			}
		}
	}

	return entries, skipped
}

func (m *Mapper) entry(href, title string) (domain.NewBookmark, bool) {
	href = strings.TrimSpace(href)
	if href == "" || domain.ValidateURL(href) != nil {
		return domain.NewBookmark{}, false
	}
	if _, dup := m.seen[href]; dup {
		return domain.NewBookmark{}, false
	}
	m.seen[href] = struct{}{}

	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.TitleFromURL(href)
	}
	return domain.NewBookmark{URL: href, Title: title}, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
