package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// File is the on-disk subscription configuration. Predicate fields of
// filters and event groups (custom filters, mappers, transaction
// predicates) cannot be expressed in YAML; callers attach those in code
// after loading.
type File struct {
	// Name keys the persisted watermark; defaults to "default".
	Name string `yaml:"name"`

	SyncBehaviour          models.SyncBehaviour `yaml:"sync_behaviour"`
	MaxRoundsToSync        uint64               `yaml:"max_rounds_to_sync"`
	MaxIndexerRoundsToSync uint64               `yaml:"max_indexer_rounds_to_sync"`

	// Frequency is the delay between polls, e.g. "5s"; empty uses the
	// subscriber default.
	Frequency string `yaml:"frequency"`

	WaitForBlockWhenAtTip bool `yaml:"wait_for_block_when_at_tip"`

	Filters     []models.NamedFilter     `yaml:"filters"`
	Arc28Groups []models.Arc28EventGroup `yaml:"arc28_groups"`
}

// Load reads and validates a configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if f.Name == "" {
		f.Name = "default"
	}
	if f.SyncBehaviour == "" {
		f.SyncBehaviour = models.SyncOldestStartNow
	}

	if len(f.Filters) == 0 {
		return nil, fmt.Errorf("config %s: at least one filter is required", path)
	}
	seen := make(map[string]bool, len(f.Filters))
	for _, filter := range f.Filters {
		if filter.Name == "" {
			return nil, fmt.Errorf("config %s: every filter needs a name", path)
		}
		if seen[filter.Name] {
			return nil, fmt.Errorf("config %s: duplicate filter name %q", path, filter.Name)
		}
		seen[filter.Name] = true
	}

	for _, group := range f.Arc28Groups {
		if group.GroupName == "" {
			return nil, fmt.Errorf("config %s: every arc-28 group needs a name", path)
		}
		if len(group.Events) == 0 {
			return nil, fmt.Errorf("config %s: arc-28 group %q has no events", path, group.GroupName)
		}
	}

	if _, err := f.PollFrequency(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return &f, nil
}

// PollFrequency parses the configured poll frequency; zero means unset.
func (f *File) PollFrequency() (time.Duration, error) {
	if f.Frequency == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(f.Frequency)
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", f.Frequency, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid frequency %q: must not be negative", f.Frequency)
	}
	return d, nil
}
