package engine

import (
	"context"
	"strconv"
	"sync"
	"time"

	eventreaderv1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/event-reader/v1"
	marketdatav1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/marketdata/v1"
	snapshotv1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/orderbook-recon/internal/infrastructure/questdb/event"
	"github.com/muhammadchandra19/orderbook-recon/internal/usecase/book"
	"github.com/muhammadchandra19/orderbook-recon/pkg/config"
	"github.com/muhammadchandra19/orderbook-recon/pkg/logger"
	"github.com/muhammadchandra19/orderbook-recon/pkg/util"
	"github.com/segmentio/kafka-go"
)

// Engine drives the reconstruction pipeline: it reads MBO events from the
// feed, applies them to per-symbol books, renders periodic depth snapshots
// and optionally archives every applied event.
//
// All book mutation is confined to the single event processor goroutine;
// the snapshot manager only ever reads under the engine lock, so order of
// application is preserved.
type Engine struct {
	// Core components
	reader        eventreaderv1.EventReader
	snapshotStore snapshotv1.Store
	archive       event.Archive // nil disables archiving
	logger        *logger.Logger
	config        *config.Config

	mu                 sync.RWMutex
	books              map[string]*book.Book
	eventOffset        int64
	lastSnapshotOffset int64
	appliedEvents      int64
	skippedEvents      int64

	archiveMu  sync.Mutex
	archiveBuf []*event.Record

	// Shutdown coordination
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Configuration
	snapshotInterval    time.Duration
	snapshotOffsetDelta int64
	archiveInterval     time.Duration
	archiveBatchSize    int
}

// NewEngine creates a new instance of Engine with the provided dependencies.
// archive may be nil when event archiving is disabled.
func NewEngine(
	reader eventreaderv1.EventReader,
	snapshotStore snapshotv1.Store,
	archive event.Archive,
	logger *logger.Logger,
	config *config.Config,
) *Engine {
	return NewEngineWithOptions(reader, snapshotStore, archive, logger, config, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options
func NewEngineWithOptions(
	reader eventreaderv1.EventReader,
	snapshotStore snapshotv1.Store,
	archive event.Archive,
	logger *logger.Logger,
	config *config.Config,
	options *Options,
) *Engine {
	return &Engine{
		reader:        reader,
		snapshotStore: snapshotStore,
		archive:       archive,
		logger:        logger,
		config:        config,

		books: make(map[string]*book.Book),

		snapshotInterval:    options.SnapshotInterval,
		snapshotOffsetDelta: options.SnapshotOffsetDelta,
		archiveInterval:     options.ArchiveInterval,
		archiveBatchSize:    options.ArchiveBatchSize,
		eventOffset:         -1,
	}
}

// Start initializes the engine and starts processing routines.
func (e *Engine) Start(ctx context.Context) error {
	// Create cancellable context
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runEventProcessor()
	go e.runSnapshotManager()

	if e.archive != nil {
		e.wg.Add(1)
		go e.runArchiveFlusher()
	}

	e.logger.Info("Reconstruction engine started", logger.Field{
		Key:   "topic",
		Value: e.config.KafkaConfig.Topic,
	})

	return nil
}

// Stop gracefully shuts down the engine
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Final snapshots and archive flush so nothing applied is lost
		e.createAndStoreSnapshots(ctx)
		e.flushArchive(ctx)
		e.logger.Info("Reconstruction engine stopped gracefully")
		return nil
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}
}

// runEventProcessor combines event reading and book application in a single
// goroutine. The book is derived purely by replay, so the processor always
// starts from the beginning of the feed.
func (e *Engine) runEventProcessor() {
	defer e.wg.Done()

	e.logger.Info("Starting event processor", logger.Field{
		Key:   "topic",
		Value: e.config.KafkaConfig.Topic,
	})

	if err := e.reader.SetOffset(kafka.FirstOffset); err != nil {
		e.logger.Error(err, logger.Field{
			Key:   "action",
			Value: "set_reader_offset",
		})
	}

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Event processor shutting down")
			e.reader.Close()
			return
		default:
			msg, ev, err := e.reader.ReadMessage(e.ctx)
			if err != nil {
				if e.ctx.Err() != nil {
					continue
				}

				// Malformed records are skipped, transport errors back off.
				if ev == nil && msg.Value != nil {
					e.countSkipped()
					e.setEventOffset(msg.Offset)
					continue
				}

				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "read_event_message",
				})
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if err := e.reader.CommitMessages(e.ctx, msg); err != nil {
				e.logger.ErrorContext(e.ctx, err, logger.Field{
					Key:   "action",
					Value: "commit_event_message",
				})
			}

			evCtx := util.WithEventID(e.ctx, strconv.FormatUint(uint64(ev.Sequence), 10))
			e.processEvent(evCtx, ev)
			e.setEventOffset(msg.Offset)
		}
	}
}

// processEvent applies one event to its symbol's book.
func (e *Engine) processEvent(ctx context.Context, ev *marketdatav1.Event) {
	e.mu.Lock()
	b, exists := e.books[ev.Symbol]
	if !exists {
		b = book.NewBook(ev.Symbol, e.config.TickScale, e.logger)
		e.books[ev.Symbol] = b
		e.logger.Info("Tracking new symbol", logger.Field{
			Key:   "symbol",
			Value: ev.Symbol,
		})
	}

	err := b.Apply(ev)
	e.appliedEvents++
	e.mu.Unlock()

	if err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "action",
			Value: "apply_event",
		}, logger.Field{
			Key:   "orderID",
			Value: ev.OrderID,
		})
		return
	}

	if e.archive != nil {
		e.bufferArchiveRecord(ev)
	}
}

// runSnapshotManager handles periodic snapshots
func (e *Engine) runSnapshotManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.snapshotInterval)
	defer ticker.Stop()

	e.logger.Info("Starting snapshot manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Snapshot manager shutting down")
			return
		case <-ticker.C:
			if e.shouldCreateSnapshot() {
				e.createAndStoreSnapshots(e.ctx)
			}
		}
	}
}

// runArchiveFlusher periodically flushes buffered applied events.
func (e *Engine) runArchiveFlusher() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.archiveInterval)
	defer ticker.Stop()

	e.logger.Info("Starting archive flusher")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Archive flusher shutting down")
			return
		case <-ticker.C:
			e.flushArchive(e.ctx)
		}
	}
}

// shouldCreateSnapshot checks if a snapshot should be created
func (e *Engine) shouldCreateSnapshot() bool {
	e.mu.RLock()
	currentOffset := e.eventOffset
	lastSnapshotOffset := e.lastSnapshotOffset
	e.mu.RUnlock()

	if currentOffset <= 0 {
		return false
	}

	delta := currentOffset - lastSnapshotOffset
	return delta >= e.snapshotOffsetDelta
}

// createAndStoreSnapshots renders and stores one snapshot per tracked symbol.
func (e *Engine) createAndStoreSnapshots(ctx context.Context) {
	opts := snapshotv1.Options{
		Depth: e.config.SnapshotDepth,
		Sides: snapshotv1.Sides(e.config.SnapshotSides),
	}

	e.mu.RLock()
	currentOffset := e.eventOffset
	snapshots := make([]*snapshotv1.Snapshot, 0, len(e.books))
	for _, b := range e.books {
		snapshots = append(snapshots, b.Snapshot(opts))
	}
	e.mu.RUnlock()

	stored := true
	for _, snapshot := range snapshots {
		if err := e.snapshotStore.Store(ctx, snapshot); err != nil {
			stored = false
			e.logger.ErrorContext(ctx, err, logger.Field{
				Key:   "action",
				Value: "store_snapshot",
			}, logger.Field{
				Key:   "symbol",
				Value: snapshot.Symbol,
			})
		}
	}

	if stored && len(snapshots) > 0 {
		e.setLastSnapshotOffset(currentOffset)
	}
}

// bufferArchiveRecord queues an applied event for the next batch flush.
func (e *Engine) bufferArchiveRecord(ev *marketdatav1.Event) {
	record := &event.Record{
		Timestamp: time.Now().UTC(),
		Symbol:    ev.Symbol,
		Action:    string(ev.Action),
		Side:      string(ev.Side),
		Price:     ev.Price,
		Size:      int64(ev.Size),
		OrderID:   int64(ev.OrderID),
		Sequence:  int64(ev.Sequence),
	}

	e.archiveMu.Lock()
	e.archiveBuf = append(e.archiveBuf, record)
	flush := len(e.archiveBuf) >= e.archiveBatchSize
	e.archiveMu.Unlock()

	if flush {
		e.flushArchive(e.ctx)
	}
}

// flushArchive writes the buffered records in one batch.
func (e *Engine) flushArchive(ctx context.Context) {
	if e.archive == nil {
		return
	}

	e.archiveMu.Lock()
	records := e.archiveBuf
	e.archiveBuf = nil
	e.archiveMu.Unlock()

	if len(records) == 0 {
		return
	}

	if err := e.archive.StoreBatch(ctx, records); err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "action",
			Value: "archive_events",
		}, logger.Field{
			Key:   "records",
			Value: len(records),
		})
	}
}

// Thread-safe getters and setters
func (e *Engine) getEventOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.eventOffset
}

func (e *Engine) setEventOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eventOffset = offset
}

func (e *Engine) setLastSnapshotOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotOffset = offset
}

func (e *Engine) countSkipped() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skippedEvents++
}

// GetEventOffset returns the offset of the last processed message.
func (e *Engine) GetEventOffset() int64 {
	return e.getEventOffset()
}

// GetAppliedCount returns the number of events applied across all books.
func (e *Engine) GetAppliedCount() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.appliedEvents
}

// GetSkippedCount returns the number of malformed records skipped.
func (e *Engine) GetSkippedCount() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.skippedEvents
}

// GetBook returns the book for a symbol, if one is tracked.
func (e *Engine) GetBook(symbol string) (*book.Book, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, exists := e.books[symbol]
	return b, exists
}

// Snapshot renders an on-demand snapshot for one symbol.
func (e *Engine) Snapshot(symbol string, opts snapshotv1.Options) (*snapshotv1.Snapshot, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	b, exists := e.books[symbol]
	if !exists {
		return nil, false
	}
	return b.Snapshot(opts), true
}
