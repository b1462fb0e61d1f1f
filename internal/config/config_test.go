package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subscriber.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
name: usdc-watcher
sync_behaviour: catchup-with-indexer
max_rounds_to_sync: 100
max_indexer_rounds_to_sync: 1000
frequency: 5s
wait_for_block_when_at_tip: true
filters:
  - name: usdc-transfers
    filter:
      type: [axfer]
      asset_id: [31566704]
      min_amount: 1000000
arc28_groups:
  - group_name: dex
    process_for_app_ids: [123]
    continue_on_error: true
    events:
      - name: Swapped
        args:
          - type: uint64
            name: amountIn
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "usdc-watcher" {
		t.Fatalf("unexpected name %q", cfg.Name)
	}
	if cfg.SyncBehaviour != models.SyncCatchupWithIndexer {
		t.Fatalf("unexpected sync behaviour %q", cfg.SyncBehaviour)
	}
	if cfg.MaxRoundsToSync != 100 || cfg.MaxIndexerRoundsToSync != 1000 {
		t.Fatalf("round limits not parsed: %d/%d", cfg.MaxRoundsToSync, cfg.MaxIndexerRoundsToSync)
	}
	if !cfg.WaitForBlockWhenAtTip {
		t.Fatalf("wait_for_block_when_at_tip not parsed")
	}

	freq, err := cfg.PollFrequency()
	if err != nil || freq != 5*time.Second {
		t.Fatalf("unexpected frequency %v (%v)", freq, err)
	}

	if len(cfg.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(cfg.Filters))
	}
	f := cfg.Filters[0]
	if f.Name != "usdc-transfers" {
		t.Fatalf("unexpected filter name %q", f.Name)
	}
	if len(f.Filter.Type) != 1 || f.Filter.Type[0] != models.TypeAxfer {
		t.Fatalf("filter type not parsed: %v", f.Filter.Type)
	}
	if len(f.Filter.AssetID) != 1 || f.Filter.AssetID[0] != 31566704 {
		t.Fatalf("asset id not parsed: %v", f.Filter.AssetID)
	}
	if f.Filter.MinAmount != 1000000 {
		t.Fatalf("min amount not parsed: %d", f.Filter.MinAmount)
	}

	if len(cfg.Arc28Groups) != 1 {
		t.Fatalf("expected 1 event group, got %d", len(cfg.Arc28Groups))
	}
	group := cfg.Arc28Groups[0]
	if group.GroupName != "dex" || !group.ContinueOnError {
		t.Fatalf("group not parsed: %+v", group)
	}
	if len(group.Events) != 1 || group.Events[0].Signature() != "Swapped(uint64)" {
		t.Fatalf("event not parsed: %+v", group.Events)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
filters:
  - name: everything
    filter: {}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "default" {
		t.Fatalf("expected default name, got %q", cfg.Name)
	}
	if cfg.SyncBehaviour != models.SyncOldestStartNow {
		t.Fatalf("expected default sync behaviour, got %q", cfg.SyncBehaviour)
	}
	if freq, err := cfg.PollFrequency(); err != nil || freq != 0 {
		t.Fatalf("expected zero frequency, got %v (%v)", freq, err)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no filters", `sync_behaviour: sync-oldest`},
		{"unnamed filter", "filters:\n  - filter: {}"},
		{"duplicate names", "filters:\n  - name: a\n    filter: {}\n  - name: a\n    filter: {}"},
		{"bad frequency", "frequency: soon\nfilters:\n  - name: a\n    filter: {}"},
		{"unnamed group", "filters:\n  - name: a\n    filter: {}\narc28_groups:\n  - events:\n      - name: E\n        args: []"},
		{"empty group", "filters:\n  - name: a\n    filter: {}\narc28_groups:\n  - group_name: g\n    events: []"},
	}

	for _, tc := range cases {
		path := writeConfig(t, tc.content)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
