package subscriber

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/algorandfoundation/algokit-subscriber-go/pkg/models"
)

// WatermarkStore persists the last processed round between polls (and across
// restarts).
type WatermarkStore interface {
	Get(ctx context.Context) (uint64, error)
	Set(ctx context.Context, watermark uint64) error
}

// Config configures an AlgorandSubscriber.
type Config struct {
	Filters       []models.NamedFilter
	Arc28Groups   []models.Arc28EventGroup
	SyncBehaviour models.SyncBehaviour

	MaxRoundsToSync        uint64
	MaxIndexerRoundsToSync uint64

	// Frequency is the delay between polls; zero defaults to one second.
	Frequency time.Duration

	// WaitForBlockWhenAtTip makes the loop wait for the next round via algod
	// instead of sleeping once the watermark has caught up with the tip.
	WaitForBlockWhenAtTip bool

	Watermark WatermarkStore
}

// BeforePollMetadata is the payload of the before:poll event.
type BeforePollMetadata struct {
	Watermark    uint64 `json:"watermark"`
	CurrentRound uint64 `json:"current_round"`
}

// AlgorandSubscriber polls the chain for transactions matching the configured
// filters and dispatches them to registered listeners.
type AlgorandSubscriber struct {
	algod   AlgodClient
	indexer IndexerClient
	config  Config
	emitter *EventEmitter

	filterNames []string

	mu            sync.Mutex
	started       bool
	stopRequested bool

	// Progress counters for the status API.
	pollCount        atomic.Uint64
	transactionCount atomic.Uint64
	lastRound        atomic.Uint64
	watermarkValue   atomic.Uint64
}

var validSyncBehaviours = map[models.SyncBehaviour]bool{
	models.SyncFail:               true,
	models.SyncSkipToNewest:       true,
	models.SyncOldest:             true,
	models.SyncOldestStartNow:     true,
	models.SyncCatchupWithIndexer: true,
}

// New validates the configuration and creates a subscriber. An indexer client
// is only required for the catchup-with-indexer sync behaviour.
func New(config Config, algodClient AlgodClient, indexerClient IndexerClient) (*AlgorandSubscriber, error) {
	if !validSyncBehaviours[config.SyncBehaviour] {
		return nil, fmt.Errorf("unsupported sync behaviour %q", config.SyncBehaviour)
	}
	if config.SyncBehaviour == models.SyncCatchupWithIndexer && indexerClient == nil {
		return nil, fmt.Errorf("received sync behaviour of catchup-with-indexer, but didn't receive an indexer instance")
	}
	if config.Watermark == nil {
		return nil, fmt.Errorf("watermark persistence is required")
	}

	names := make([]string, 0, len(config.Filters))
	for _, f := range config.Filters {
		if f.Name == "error" {
			return nil, fmt.Errorf("'error' is reserved, please supply a different filter name")
		}
		names = append(names, f.Name)
	}

	return &AlgorandSubscriber{
		algod:       algodClient,
		indexer:     indexerClient,
		config:      config,
		emitter:     NewEventEmitter(),
		filterNames: names,
	}, nil
}

// PollOnce executes a single subscription poll: read the watermark, fetch and
// filter the new rounds, dispatch events, then advance the watermark.
func (s *AlgorandSubscriber) PollOnce(ctx context.Context) (*models.SubscriptionResult, error) {
	watermark, err := s.config.Watermark.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading watermark: %w", err)
	}

	status, err := s.algod.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting node status: %w", err)
	}

	s.emitter.Emit("before:poll", BeforePollMetadata{Watermark: watermark, CurrentRound: status.LastRound})

	result, err := GetSubscribedTransactions(ctx, &SubscriptionParams{
		Filters:                s.config.Filters,
		Arc28Groups:            s.config.Arc28Groups,
		SyncBehaviour:          s.config.SyncBehaviour,
		Watermark:              watermark,
		MaxRoundsToSync:        s.config.MaxRoundsToSync,
		MaxIndexerRoundsToSync: s.config.MaxIndexerRoundsToSync,
		CurrentRound:           status.LastRound,
	}, s.algod, s.indexer)
	if err != nil {
		return nil, err
	}

	for _, f := range s.config.Filters {
		matched := make([]*models.SubscribedTransaction, 0)
		for _, t := range result.SubscribedTransactions {
			if containsString(t.FiltersMatched, f.Name) {
				matched = append(matched, t)
			}
		}
		if f.Mapper != nil {
			matched = f.Mapper(matched)
		}

		s.emitter.Emit("batch:"+f.Name, matched)
		for _, t := range matched {
			s.emitter.Emit(f.Name, t)
		}
	}

	s.emitter.Emit("poll", result)

	if err := s.config.Watermark.Set(ctx, result.NewWatermark); err != nil {
		return nil, fmt.Errorf("persisting watermark: %w", err)
	}

	s.pollCount.Add(1)
	s.transactionCount.Add(uint64(len(result.SubscribedTransactions)))
	s.lastRound.Store(result.CurrentRound)
	s.watermarkValue.Store(result.NewWatermark)

	return result, nil
}

// Start runs the subscriber loop until Stop is called or the context is
// cancelled. Poll errors go to registered error listeners; without any, the
// error stops the loop and is returned.
func (s *AlgorandSubscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.stopRequested = false
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
	}()

	for !s.stopping() && ctx.Err() == nil {
		start := time.Now()

		result, err := s.PollOnce(ctx)
		if err != nil {
			if s.emitter.ListenerCount("error") == 0 {
				return err
			}
			s.emitter.Emit("error", err)
			continue
		}

		log.Printf("[Subscriber] Poll completed in %s: round %d, watermark %d -> %d, %d transaction(s)",
			time.Since(start).Round(time.Millisecond), result.CurrentRound,
			result.StartingWatermark, result.NewWatermark, len(result.SubscribedTransactions))

		if s.stopping() || ctx.Err() != nil {
			break
		}

		if result.CurrentRound > result.NewWatermark || !s.config.WaitForBlockWhenAtTip {
			frequency := s.config.Frequency
			if frequency <= 0 {
				frequency = time.Second
			}
			select {
			case <-time.After(frequency):
			case <-ctx.Done():
			}
		} else {
			nextRound := result.CurrentRound + 1
			log.Printf("[Subscriber] Waiting for round %d", nextRound)
			if _, err := s.algod.StatusAfterBlock(ctx, result.CurrentRound); err != nil {
				if s.emitter.ListenerCount("error") == 0 {
					return err
				}
				s.emitter.Emit("error", err)
			}
		}
	}

	return ctx.Err()
}

// Stop requests the loop to exit after the in-flight poll finishes.
func (s *AlgorandSubscriber) Stop(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.stopRequested = true
	log.Printf("[Subscriber] Stopping subscriber: %s", reason)
}

func (s *AlgorandSubscriber) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// On registers a listener for every transaction matching the named filter.
func (s *AlgorandSubscriber) On(filterName string, fn Listener) *AlgorandSubscriber {
	if filterName == "error" {
		panic("'error' is reserved, use OnError")
	}
	s.emitter.On(filterName, fn)
	return s
}

// OnBatch registers a listener for the whole matched batch of the named
// filter on each poll, after any configured mapper has run.
func (s *AlgorandSubscriber) OnBatch(filterName string, fn Listener) *AlgorandSubscriber {
	s.emitter.On("batch:"+filterName, fn)
	return s
}

// OnBeforePoll registers a listener invoked before each poll with the
// watermark and chain tip.
func (s *AlgorandSubscriber) OnBeforePoll(fn Listener) *AlgorandSubscriber {
	s.emitter.On("before:poll", fn)
	return s
}

// OnPoll registers a listener invoked with the full result after each poll.
func (s *AlgorandSubscriber) OnPoll(fn Listener) *AlgorandSubscriber {
	s.emitter.On("poll", fn)
	return s
}

// OnError registers an error listener. Registering at least one stops poll
// errors from terminating Start.
func (s *AlgorandSubscriber) OnError(fn Listener) *AlgorandSubscriber {
	s.emitter.On("error", fn)
	return s
}

// Progress is a snapshot of the subscriber's counters for the status API.
type Progress struct {
	Polls        uint64 `json:"polls"`
	Transactions uint64 `json:"transactions"`
	CurrentRound uint64 `json:"current_round"`
	Watermark    uint64 `json:"watermark"`
}

func (s *AlgorandSubscriber) Progress() Progress {
	return Progress{
		Polls:        s.pollCount.Load(),
		Transactions: s.transactionCount.Load(),
		CurrentRound: s.lastRound.Load(),
		Watermark:    s.watermarkValue.Load(),
	}
}

// FilterNames returns the configured filter names in order.
func (s *AlgorandSubscriber) FilterNames() []string {
	return append([]string(nil), s.filterNames...)
}
