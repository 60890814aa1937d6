package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	Semantic SemanticConfig
	Log      LogConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// ProviderConfig - настройки внешнего контекст-провайдера.
// APIKey передаётся в конструктор клиента; ядро его из окружения не читает.
type ProviderConfig struct {
	DataSource          string
	APIKey              string
	WeatherBaseURL      string
	TrafficBaseURL      string
	RoutingBaseURL      string
	RequestTimeout      time.Duration
	TrafficRadiusM      int
	ForecastWindowHours int
	ForecastIntervalMin int
	SnapshotCacheTTL    time.Duration
	SimulatorSeed       string
}

// SemanticConfig - значения по умолчанию семантического слоя
type SemanticConfig struct {
	CorridorRadiusKm    float64
	TopK                int
	AvgSpeedKmh         float64
	ProviderConcurrency int
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	MaxRetries        int
	ObservationLimit  int
	StreamReadTimeout time.Duration
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Enabled:         viper.GetBool("DB_ENABLED"),
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Provider: ProviderConfig{
			DataSource:          viper.GetString("PROVIDER_DATA_SOURCE"),
			APIKey:              viper.GetString("PROVIDER_API_KEY"),
			WeatherBaseURL:      viper.GetString("PROVIDER_WEATHER_BASE_URL"),
			TrafficBaseURL:      viper.GetString("PROVIDER_TRAFFIC_BASE_URL"),
			RoutingBaseURL:      viper.GetString("PROVIDER_ROUTING_BASE_URL"),
			RequestTimeout:      time.Duration(viper.GetInt("PROVIDER_TIMEOUT_SEC")) * time.Second,
			TrafficRadiusM:      viper.GetInt("PROVIDER_TRAFFIC_RADIUS_M"),
			ForecastWindowHours: viper.GetInt("PROVIDER_FORECAST_WINDOW_HOURS"),
			ForecastIntervalMin: viper.GetInt("PROVIDER_FORECAST_INTERVAL_MIN"),
			SnapshotCacheTTL:    time.Duration(viper.GetInt("PROVIDER_SNAPSHOT_CACHE_TTL")) * time.Second,
			SimulatorSeed:       viper.GetString("PROVIDER_SIMULATOR_SEED"),
		},
		Semantic: SemanticConfig{
			CorridorRadiusKm:    viper.GetFloat64("SEMANTIC_CORRIDOR_RADIUS_KM"),
			TopK:                viper.GetInt("SEMANTIC_TOP_K"),
			AvgSpeedKmh:         viper.GetFloat64("SEMANTIC_AVG_SPEED_KMH"),
			ProviderConcurrency: viper.GetInt("SEMANTIC_PROVIDER_CONCURRENCY"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
			ObservationLimit:  viper.GetInt("WORKER_OBSERVATION_LIMIT"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
		},
	}

	// Set default values if not provided
	if cfg.Provider.DataSource == "" {
		cfg.Provider.DataSource = "simulated"
	}
	if cfg.Provider.RequestTimeout == 0 {
		cfg.Provider.RequestTimeout = 12 * time.Second
	}
	if cfg.Provider.TrafficRadiusM == 0 {
		cfg.Provider.TrafficRadiusM = 300
	}
	if cfg.Provider.ForecastWindowHours == 0 {
		cfg.Provider.ForecastWindowHours = 24
	}
	if cfg.Provider.ForecastIntervalMin == 0 {
		cfg.Provider.ForecastIntervalMin = 120
	}
	if cfg.Provider.SnapshotCacheTTL == 0 {
		cfg.Provider.SnapshotCacheTTL = 10 * time.Minute
	}
	if cfg.Semantic.CorridorRadiusKm == 0 {
		cfg.Semantic.CorridorRadiusKm = 1.2
	}
	if cfg.Semantic.TopK == 0 {
		cfg.Semantic.TopK = 8
	}
	if cfg.Semantic.AvgSpeedKmh == 0 {
		cfg.Semantic.AvgSpeedKmh = 40.0
	}
	if cfg.Semantic.ProviderConcurrency == 0 {
		cfg.Semantic.ProviderConcurrency = 8
	}
	if cfg.Worker.ConsumerGroup == "" {
		cfg.Worker.ConsumerGroup = "observation-ingest-workers"
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}
	if cfg.Worker.ObservationLimit == 0 {
		cfg.Worker.ObservationLimit = 500
	}
	if cfg.Worker.StreamReadTimeout == 0 {
		cfg.Worker.StreamReadTimeout = 5000 * time.Millisecond
	}

	return cfg, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
