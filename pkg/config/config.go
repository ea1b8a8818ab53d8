package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/muhammadchandra19/orderbook-recon/pkg/questdb"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // .env file is optional

	if err := env.Parse(cfg); err != nil {
		return err // Return error if environment variable parsing fails
	}

	return nil
}

// Config holds the configuration for the book reconstructor service.
type Config struct {
	// TickScale is the number of price ticks per currency unit.
	// The default of 100 keeps 2 decimal places.
	TickScale int64 `env:"TICK_SCALE" envDefault:"100"`

	// SnapshotDepth is the number of price levels per side included in a
	// rendered snapshot. 0 means all levels.
	SnapshotDepth int `env:"SNAPSHOT_DEPTH" envDefault:"0"`

	// SnapshotSides selects which sides a snapshot includes: both, bids or asks.
	SnapshotSides string `env:"SNAPSHOT_SIDES" envDefault:"both"`

	SnapshotInterval    time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	SnapshotOffsetDelta int64         `env:"SNAPSHOT_OFFSET_DELTA" envDefault:"1000"`

	// HealthAddr is the listen address of the health endpoint.
	HealthAddr string `env:"HEALTH_ADDR" envDefault:":8080"`

	ArchiveEnabled   bool          `env:"ARCHIVE_ENABLED" envDefault:"false"`
	ArchiveBatchSize int           `env:"ARCHIVE_BATCH_SIZE" envDefault:"500"`
	ArchiveInterval  time.Duration `env:"ARCHIVE_INTERVAL" envDefault:"5s"`

	KafkaConfig   `envPrefix:"KAFKA_"` // Kafka configuration
	RedisConfig   `envPrefix:"REDIS_"` // Redis configuration
	QuestDBConfig questdb.Config       `envPrefix:"QUESTDB_"` // QuestDB configuration, used when archiving
}

// KafkaConfig holds the configuration for the MBO event topic consumer.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:"default_group"`
	Brokers []string `env:"BROKER,required"`
}

// RedisConfig holds the configuration for the snapshot store Redis client.
type RedisConfig struct {
	Addrs          string `env:"ADDRESS,required"` // Comma-separated list of Redis addresses
	Password       string `env:"PASSWORD" envDefault:""`
	Username       string `env:"USERNAME" envDefault:""`
	DB             int    `env:"DB" envDefault:"0"`
	DefaultChannel string `env:"DEFAULT_CHANNEL" envDefault:"orderbook"`
}
