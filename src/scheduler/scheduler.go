package scheduler

import (
	"sync"
	"time"

	"stock-stream/src/interfaces"
	"stock-stream/src/logger"
	"stock-stream/src/models"
	"stock-stream/src/subscription"
)

// -----------------------------------------------------------------------------
// Scheduler
// -----------------------------------------------------------------------------

// Scheduler owns the single process-wide refresh timer. It is Idle until
// the registry gains its first subscription, Running until the registry
// empties again, and nothing else starts or stops it. All fetch cycles -
// periodic ticks and force-updates alike - are serialized through one
// mutex, so no two cycles ever run concurrently; a tick that fires while
// a slow cycle is still in flight queues behind it.
type Scheduler struct {
	Interval time.Duration
	Registry *subscription.Registry
	Fetcher  interfaces.IQuoteFetcher
	Sink     interfaces.IBroadcaster
	Store    interfaces.IQuoteStore // optional persistence sink, may be nil
	Logger   *logger.Logger

	mu      sync.Mutex // guards running/stop
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	cycleMu sync.Mutex // serializes fetch cycles
}

// -----------------------------------------------------------------------------

func NewScheduler(interval time.Duration, registry *subscription.Registry, fetcher interfaces.IQuoteFetcher, sink interfaces.IBroadcaster, store interfaces.IQuoteStore, log *logger.Logger) *Scheduler {
	s := &Scheduler{
		Interval: interval,
		Registry: registry,
		Fetcher:  fetcher,
		Sink:     sink,
		Store:    store,
		Logger:   log,
	}

	// Registry occupancy is the scheduler's only start/stop trigger.
	registry.SetOccupancyListener(s.onOccupancy)
	return s
}

// -----------------------------------------------------------------------------

func (s *Scheduler) onOccupancy(occupied bool) {
	if occupied {
		s.start()
	} else {
		s.stopLoop()
	}
}

// -----------------------------------------------------------------------------

// Active reports whether the periodic timer is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// -----------------------------------------------------------------------------

func (s *Scheduler) start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	s.Logger.Info("Scheduler started (interval %v)", s.Interval)

	s.wg.Add(1)
	go s.loop(stop)
}

// -----------------------------------------------------------------------------

func (s *Scheduler) stopLoop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.Logger.Info("Scheduler stopped (no subscriptions)")
}

// -----------------------------------------------------------------------------

// Shutdown stops the timer regardless of registry occupancy and waits for
// any in-flight cycle to finish. Only the composition root calls this, on
// process exit.
func (s *Scheduler) Shutdown() {
	s.stopLoop()
	s.wg.Wait()
}

// -----------------------------------------------------------------------------

func (s *Scheduler) loop(stop chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// -----------------------------------------------------------------------------

// tick runs one refresh cycle for every currently subscribed symbol.
// Errors never escape: an unrecoverable adapter failure is logged and the
// loop keeps ticking.
func (s *Scheduler) tick() {
	defer func() {
		if rec := recover(); rec != nil {
			s.Logger.Error("Refresh cycle panicked: %v", rec)
		}
	}()

	symbols := s.Registry.AllSubscribedSymbols()
	if len(symbols) == 0 {
		// Raced with concurrent unsubscribes; skip the upstream call.
		return
	}

	s.runCycle(symbols)
}

// -----------------------------------------------------------------------------

// ForceUpdate triggers an out-of-band fetch+broadcast cycle for the given
// symbols without waiting for the next tick. With no symbols given it
// refreshes everything currently subscribed.
func (s *Scheduler) ForceUpdate(symbols []string) {
	if len(symbols) == 0 {
		symbols = s.Registry.AllSubscribedSymbols()
	}
	if len(symbols) == 0 {
		return
	}
	s.runCycle(symbols)
}

// -----------------------------------------------------------------------------

func (s *Scheduler) runCycle(symbols []string) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	started := time.Now()
	results, failures := s.Fetcher.FetchMany(symbols)

	s.persist(results)
	s.Sink.Deliver(results, failures)

	s.Logger.Debug("Refresh cycle: %d symbols, %d ok, %d failed in %v",
		len(symbols), len(results), len(failures), time.Since(started))
}

// -----------------------------------------------------------------------------

func (s *Scheduler) persist(results []models.MQuote) {
	if s.Store == nil {
		return
	}
	for _, quote := range results {
		if err := s.Store.UpsertQuote(quote); err != nil {
			s.Logger.Error("Failed to persist quote for %s: %v", quote.Symbol, err)
		}
	}
}
