package types

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

type CLI struct {
	ConfigPath string
	LogPath    string
	LogLevel   string
	Pprof      bool
	PprofPath  string
	Backend    string
	Catalog    string
	Field      string
	Filters    []string
	FromTime   string
	ToTime     string
	RangeField string
	LogScale   bool
	// HistField and HistInterval nest a numeric histogram under every bucket
	HistField    string
	HistInterval float64
	DisableMouse bool
	JSON         bool
	Listen       string
}

// ParseFromTime returns a zero time when --from is not set
func (c *CLI) ParseFromTime() (time.Time, error) {
	return parseTime(c.FromTime, "from")
}

func (c *CLI) ParseToTime() (time.Time, error) {
	return parseTime(c.ToTime, "to")
}

func parseTime(value, flag string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "can't parse --%s=%q", flag, value)
	}
	return t, nil
}

// ParseFilters turns repeated --filter field=value flags into a map
func (c *CLI) ParseFilters() (map[string]string, error) {
	filters := make(map[string]string, len(c.Filters))
	for _, f := range c.Filters {
		name, value, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, errors.Errorf("bad --filter %q, expected field=value", f)
		}
		filters[name] = value
	}
	return filters, nil
}
