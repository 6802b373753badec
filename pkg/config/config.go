package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Tileset   Tileset   `envPrefix:"TILESET_"`
		Fetch     Fetch     `envPrefix:"FETCH_"`
		Pool      Pool      `envPrefix:"POOL_"`
		Store     Store     `envPrefix:"STORE_"`
		View      View      `envPrefix:"VIEW_"`
	}

	HTTP struct {
		Server          Server        `envPrefix:"SERVER_"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}

	Server struct {
		Host         string        `env:"HOST"`
		Port         string        `env:"PORT" envDefault:"8080"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL,required"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-tileview"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Tileset struct {
		URL string `env:"URL,required"`
	}

	Fetch struct {
		Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`
		UserAgent string        `env:"USER_AGENT" envDefault:"GuideHelper/1.0 (https://github.com/jaennil/guide_helper)"`
		Referer   string        `env:"REFERER" envDefault:""`
		CoolDown  time.Duration `env:"COOL_DOWN" envDefault:"10s"`
	}

	Pool struct {
		Workers int `env:"WORKERS" envDefault:"4"`
	}

	Store struct {
		// Type is one of: memory, sqlite, redis, file, disabled.
		Type       string        `env:"TYPE" envDefault:"memory"`
		SQLitePath string        `env:"SQLITE_PATH" envDefault:"file:tiles.db?cache=shared"`
		FileDir    string        `env:"FILE_DIR" envDefault:"./tiles"`
		RedisAddr  string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		RedisPass  string        `env:"REDIS_PASSWORD" envDefault:""`
		RedisDB    int           `env:"REDIS_DB" envDefault:"0"`
		RedisTTL   time.Duration `env:"REDIS_TTL" envDefault:"24h"`
	}

	View struct {
		FrameInterval     time.Duration `env:"FRAME_INTERVAL" envDefault:"100ms"`
		TileSize          int           `env:"TILE_SIZE" envDefault:"256"`
		MaxViewportPixels int           `env:"MAX_VIEWPORT_PIXELS" envDefault:"8192"`
		MaxCells          int           `env:"MAX_CELLS" envDefault:"4096"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
