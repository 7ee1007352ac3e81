package lookup

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formtemplate/pkg/template"
)

// TimezoneDatasource is the datasource name served by TimezoneSource.
const TimezoneDatasource = "timezones"

//go:embed timezones.txt
var embeddedZones string

var (
	defaultZonesOnce sync.Once
	defaultZones     []string
	defaultZonesErr  error
)

// DefaultZones returns the embedded zone list, sorted.
func DefaultZones() ([]string, error) {
	defaultZonesOnce.Do(func() {
		defaultZones, defaultZonesErr = LoadZones(strings.NewReader(embeddedZones))
	})
	if defaultZonesErr != nil {
		return nil, defaultZonesErr
	}
	return append([]string(nil), defaultZones...), nil
}

// LoadZones reads one zone per line, skipping blanks, # comments and
// duplicates, and returns them sorted.
func LoadZones(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, fmt.Errorf("lookup: missing zone reader")
	}

	scanner := bufio.NewScanner(r)
	zones := make([]string, 0, 64)
	seen := map[string]struct{}{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		zones = append(zones, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lookup: read zones: %w", err)
	}

	sort.Strings(zones)
	return zones, nil
}

// SearchZones matches query case-insensitively anywhere in a zone name.
// Prefix matches sort before other matches, then by name. An empty query
// or a non-positive limit yields nothing.
func SearchZones(zones []string, query string, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	type match struct {
		name     string
		isPrefix bool
	}
	matches := make([]match, 0, 16)
	for _, zone := range zones {
		lower := strings.ToLower(zone)
		if !strings.Contains(lower, query) {
			continue
		}
		matches = append(matches, match{name: zone, isPrefix: strings.HasPrefix(lower, query)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.name)
	}
	return out
}

// TimezoneSource serves the "timezones" datasource. A nil Zones uses the
// embedded list. A non-empty Query narrows the options through SearchZones,
// capped at Limit entries (every match when Limit is not positive).
type TimezoneSource struct {
	Zones []string
	Query string
	Limit int
}

// Options implements Source.
func (s TimezoneSource) Options(_ context.Context, datasource string) ([]template.Option, error) {
	if datasource != TimezoneDatasource {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDatasource, datasource)
	}
	zones := s.Zones
	if zones == nil {
		var err error
		if zones, err = DefaultZones(); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(s.Query) != "" {
		limit := s.Limit
		if limit <= 0 {
			limit = len(zones)
		}
		zones = SearchZones(zones, s.Query, limit)
	}
	out := make([]template.Option, 0, len(zones))
	for _, zone := range zones {
		out = append(out, template.Option{ID: zone, Label: zone})
	}
	return out, nil
}
