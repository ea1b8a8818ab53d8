package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	snapshotv1 "github.com/muhammadchandra19/orderbook-recon/internal/domain/snapshot/v1"
	"github.com/muhammadchandra19/orderbook-recon/pkg/errors"
	"github.com/muhammadchandra19/orderbook-recon/pkg/logger"
	"github.com/muhammadchandra19/orderbook-recon/pkg/redis"
	"github.com/oklog/ulid/v2"
)

// keyPrefix namespaces the snapshot keys in Redis.
const keyPrefix = "book:"

// Store persists depth snapshots in Redis and announces each stored snapshot
// on a pub/sub channel so downstream consumers can react without polling.
type Store struct {
	channel     string
	logger      *logger.Logger
	redisclient redis.Client
	entropy     *ulid.MonotonicEntropy
}

// NewStore creates a snapshot store backed by the given Redis client.
func NewStore(redisclient redis.Client, channel string, log *logger.Logger) *Store {
	return &Store{
		channel:     channel,
		redisclient: redisclient,
		logger:      log,
		entropy:     ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Store serializes the snapshot, writes it under book:<symbol> and publishes
// it on the snapshot channel. Each stored snapshot gets a ULID so consumers
// can deduplicate.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	snapshot.ID = ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()

	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: snapshot.Symbol,
		})
		return errors.NewTracer(string(errors.SnapshotMarshalError)).Wrap(err)
	}

	if err := s.redisclient.Set(ctx, keyPrefix+snapshot.Symbol, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: snapshot.Symbol,
		})
		return errors.NewTracer(string(errors.SnapshotStoreError)).Wrap(err)
	}

	if _, err := s.redisclient.Publish(ctx, s.channel, buf); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: snapshot.Symbol,
		}, logger.Field{
			Key:   "channel",
			Value: s.channel,
		})
		return errors.NewTracer(string(errors.RedisPublishError)).Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot stored for %s", snapshot.Symbol),
		logger.Field{Key: "symbol", Value: snapshot.Symbol},
		logger.Field{Key: "sequence", Value: snapshot.Sequence},
		logger.Field{Key: "snapshotID", Value: snapshot.ID},
	)
	return nil
}

// Load reads the latest stored snapshot for a symbol. Returns nil when no
// snapshot has been stored yet.
func (s *Store) Load(ctx context.Context, symbol string) (*snapshotv1.Snapshot, error) {
	data, err := s.redisclient.Get(ctx, keyPrefix+symbol)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: symbol,
		})
		return nil, errors.NewTracer(string(errors.SnapshotLoadError)).Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for %s", symbol), logger.Field{
			Key:   "symbol",
			Value: symbol,
		})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "symbol",
			Value: symbol,
		})
		return nil, errors.NewTracer(string(errors.SnapshotLoadError)).Wrap(err)
	}

	return &snapshot, nil
}
