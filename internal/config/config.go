package config

import (
	"net"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Host        string `envconfig:"INGEST_SERVER_HOST" default:"0.0.0.0"`
	Port        string `envconfig:"INGEST_SERVER_PORT" default:"8000"`
	ReadTimeout int    `envconfig:"INGEST_SERVER_TIMEOUT" default:"10"`
	// HandlerTimeout bounds a single request, including all outbound calls.
	HandlerTimeout int `envconfig:"INGEST_HANDLER_TIMEOUT" default:"30"`
}

type Geocoding struct {
	URL         string        `envconfig:"GEOCODING_API_URL" default:"https://geocoding-api.open-meteo.com/v1/search"`
	Language    string        `envconfig:"GEOCODING_LANGUAGE" default:"en"`
	ResultCount int           `envconfig:"GEOCODING_RESULT_COUNT" default:"1"`
	Timeout     time.Duration `envconfig:"GEOCODING_TIMEOUT" default:"5s"`
}

type Forecast struct {
	URL     string        `envconfig:"FORECAST_API_URL" default:"https://api.open-meteo.com/v1/forecast"`
	Timeout time.Duration `envconfig:"FORECAST_TIMEOUT" default:"10s"`
}

type Ingest struct {
	Concurrency int           `envconfig:"INGEST_CONCURRENCY" default:"8"`
	PastHours   int           `envconfig:"INGEST_PAST_HOURS" default:"24"`
	FutureHours int           `envconfig:"INGEST_FUTURE_HOURS" default:"24"`
	Timeout     time.Duration `envconfig:"INGEST_TIMEOUT" default:"30s"`
}

type Relay struct {
	Transport  string        `envconfig:"RELAY_TRANSPORT" default:"http"`
	URL        string        `envconfig:"RELAY_URL" default:"http://service-c:8000/records"`
	Timeout    time.Duration `envconfig:"RELAY_TIMEOUT" default:"5s"`
	Exchange   string        `envconfig:"RELAY_EXCHANGE" default:"weather_records"`
	RoutingKey string        `envconfig:"RELAY_ROUTING_KEY" default:"records.enriched"`
}

type RabbitMQ struct {
	Host string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port string `envconfig:"RABBITMQ_PORT" default:"5672"`
	User string `envconfig:"RABBITMQ_USER" default:"guest"`
	Pass string `envconfig:"RABBITMQ_PASSWORD" default:"guest"`
}

type Breaker struct {
	TimeInterval int    `envconfig:"BREAKER_INTERVAL" default:"30"`
	TimeTimeOut  int    `envconfig:"BREAKER_TIMEOUT" default:"10"`
	RepeatNumber uint32 `envconfig:"BREAKER_REPEAT_NUM" default:"5"`
}

type Redis struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	DbType   int    `envconfig:"REDIS_DB_TYPE" default:"0"`
	LiveTime int    `envconfig:"REDIS_LIVE_TIME" default:"24"`
}

type Scheduler struct {
	Enabled    bool          `envconfig:"SCHEDULER_ENABLED" default:"false"`
	Spec       string        `envconfig:"SCHEDULER_SPEC" default:"0 5 * * * *"`
	Locations  []string      `envconfig:"SCHEDULER_LOCATIONS"`
	RunTimeout time.Duration `envconfig:"SCHEDULER_RUN_TIMEOUT" default:"2m"`
}

type Config struct {
	Server    Server
	Geocoding Geocoding
	Forecast  Forecast
	Ingest    Ingest
	Relay     Relay
	RabbitMQ  RabbitMQ
	Breaker   Breaker
	Redis     Redis
	Scheduler Scheduler

	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogsPath     string `envconfig:"LOGS_PATH" default:"./log/weather-ingestion.log"`
	HTTPLogsPath string `envconfig:"HTTP_LOGS_PATH" default:"./log/outbound-http.log"`
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) RedisAddress() string {
	return net.JoinHostPort(c.Redis.Host, c.Redis.Port)
}

func (r *RabbitMQ) Address() string {
	return "amqp://" + r.User + ":" + r.Pass + "@" + net.JoinHostPort(r.Host, r.Port) + "/"
}
