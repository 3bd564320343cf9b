// Package homepage imports bookmarks from Homepage (gethomepage.dev)
// bookmarks.yaml and services.yaml files.
package homepage

import (
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/keep/internal/domain"
)

// Format selects which Homepage file layout a payload uses.
type Format string

const (
	FormatBookmarks Format = "bookmarks"
	FormatServices  Format = "services"
)

// ErrUnknownFormat is returned for a format other than bookmarks or services.
var ErrUnknownFormat = errors.New("unknown import format")

var templateVariable = regexp.MustCompile(`\{\{[^}]+\}\}`)

// ParseFormat validates a user-supplied format. Empty means bookmarks.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatBookmarks:
		return FormatBookmarks, nil
	case FormatServices:
		return FormatServices, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Parse decodes data in the given format and maps it to bookmark inputs.
// skipped counts entries without a usable href.
func Parse(format Format, data []byte) (entries []domain.NewBookmark, skipped int, err error) {
	// Strip Homepage template variables ({{HOMEPAGE_VAR_...}})
	data = stripTemplateVariables(data)

	switch format {
	case FormatBookmarks:
		var config BookmarksConfig
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, 0, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
		}
		entries, skipped = NewMapper().MapBookmarks(config)
	case FormatServices:
		var config ServicesConfig
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, 0, fmt.Errorf("failed to parse services yaml: %w", err)
		}
		entries, skipped = NewMapper().MapServices(config)
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return entries, skipped, nil
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVariable.ReplaceAll(data, []byte(`""`))
}
