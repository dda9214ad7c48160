package rates

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/latepay/arrears/interest"
)

// =============================================================================
// YAML SCHEDULE FILES
// =============================================================================

// intervalYAML is the on-disk shape of one schedule entry:
//
//	- start: 2024-06-06
//	  end: 2100-01-01
//	  rate: 10.75
type intervalYAML struct {
	Start string  `yaml:"start"`
	End   string  `yaml:"end"`
	Rate  float64 `yaml:"rate"`
}

// LoadFile reads a YAML rate schedule and returns a validated table.
// The statute changes by announcement, not by code release, so the
// schedule is configuration; DefaultSchedule is only the built-in seed.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate schedule: %w", err)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (*Table, error) {
	var raw []intervalYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rate schedule: %w", err)
	}

	intervals := make([]interest.RateInterval, 0, len(raw))
	for i, r := range raw {
		start, err := interest.ParseDate(r.Start)
		if err != nil {
			return nil, fmt.Errorf("rate schedule entry %d: bad start date %q", i, r.Start)
		}
		end, err := interest.ParseDate(r.End)
		if err != nil {
			return nil, fmt.Errorf("rate schedule entry %d: bad end date %q", i, r.End)
		}
		intervals = append(intervals, interest.RateInterval{
			Start: start,
			End:   end,
			Rate:  decimal.NewFromFloat(r.Rate),
		})
	}
	return New(intervals)
}

// WriteFile persists the table's stored intervals as YAML.
func WriteFile(path string, t *Table) error {
	intervals := t.Intervals()
	raw := make([]intervalYAML, len(intervals))
	for i, ri := range intervals {
		rate, _ := ri.Rate.Float64()
		raw[i] = intervalYAML{Start: ri.Start.String(), End: ri.End.String(), Rate: rate}
	}

	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode rate schedule: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
