package cli

import (
	"context"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driving"
)

// memConfigStore is an in-memory config store for CLI tests.
type memConfigStore struct {
	data map[string]any
}

func newMemConfigStore() *memConfigStore {
	return &memConfigStore{data: make(map[string]any)}
}

func (s *memConfigStore) Get(key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *memConfigStore) GetString(key string) string {
	v, _ := s.data[key].(string)
	return v
}

func (s *memConfigStore) GetInt(key string) int {
	switch v := s.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

func (s *memConfigStore) GetBool(key string) bool {
	v, _ := s.data[key].(bool)
	return v
}

func (s *memConfigStore) GetFloat(key string) float64 {
	switch v := s.data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func (s *memConfigStore) Set(key string, value any) error {
	s.data[key] = value
	return nil
}

func (s *memConfigStore) Path() string {
	return "/tmp/imgcrate-test/config.toml"
}

// stubHarvester yields canned events and results.
type stubHarvester struct {
	result  *driving.Result
	err     error
	events  []domain.ProgressEvent
	lastURL string
	lastOpt driving.Options
	lastCtx context.Context
}

func (h *stubHarvester) Run(_ context.Context, pageURL string, opts driving.Options) (*driving.Result, error) {
	h.lastURL = pageURL
	h.lastOpt = opts
	return h.result, h.err
}

func (h *stubHarvester) Stream(ctx context.Context, pageURL string, opts driving.Options) <-chan domain.ProgressEvent {
	h.lastURL = pageURL
	h.lastOpt = opts
	h.lastCtx = ctx
	ch := make(chan domain.ProgressEvent, len(h.events))
	for _, ev := range h.events {
		ch <- ev
	}
	close(ch)
	return ch
}

// setupTestServices wires stub services and returns a cleanup restoring
// the previous wiring.
func setupTestServices(h *stubHarvester) func() {
	prevHarvester, prevConfig := harvester, configStore
	Configure(h, newMemConfigStore())
	return func() {
		harvester = prevHarvester
		configStore = prevConfig
	}
}

// doneEvents is a minimal successful stream.
func doneEvents(archive []byte, filename string) []domain.ProgressEvent {
	return []domain.ProgressEvent{
		{RunID: "r", Stage: domain.StageValidating, Percent: 2},
		{RunID: "r", Stage: domain.StageDownloading, Percent: 60, Completed: 1, Total: 1, Item: "a.png"},
		{RunID: "r", Stage: domain.StageDone, Percent: 100, Total: 1, Archive: archive, Filename: filename},
	}
}
