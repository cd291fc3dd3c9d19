// server/config/config.go
package config

import (
	"time"

	"github.com/spf13/viper"
)

// --- Các struct con, phản ánh cấu trúc của YAML ---

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug | release | test
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
	// UseTransactions requires a replica set. Without it the store falls
	// back to a compensating update when an order insert fails.
	UseTransactions bool `mapstructure:"useTransactions"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

// TTL parses Expiration, defaulting to 72h.
func (j JWTConfig) TTL() time.Duration {
	d, err := time.ParseDuration(j.Expiration)
	if err != nil || d <= 0 {
		return 72 * time.Hour
	}
	return d
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

// Enabled reports whether photo uploads are configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != "" && s.Region != ""
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"serviceName"`
	// Endpoint is the OTLP/HTTP collector, e.g. "localhost:4318". Empty disables export.
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
	// Stdout prints spans to the console; useful while developing.
	Stdout bool `mapstructure:"stdout"`
}

type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// --- Struct Config chính, bao gồm tất cả các struct con ---

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	S3        S3Config        `mapstructure:"s3"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Seed      SeedConfig      `mapstructure:"seed"`
}

// LoadConfig đọc cấu hình từ file và ghi đè bằng các biến môi trường.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	// Thiết lập đường dẫn và tên file config
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.dbName", "tilapia_hub")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("jwt.expiration", "72h")
	v.SetDefault("cors.allowedOrigins", []string{"http://localhost:5173"})
	v.SetDefault("telemetry.serviceName", "tilapia-hub-api-server")

	v.AutomaticEnv()

	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "GIN_MODE")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.dbName", "MONGO_DBNAME")
	v.BindEnv("mongo.useTransactions", "MONGO_USE_TRANSACTIONS")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	v.BindEnv("s3.bucket", "S3_BUCKET")
	v.BindEnv("s3.region", "S3_REGION")
	v.BindEnv("s3.accessKeyID", "S3_ACCESS_KEY_ID")
	v.BindEnv("s3.secretAccessKey", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("s3.cloudFrontDomain", "S3_CLOUDFRONT_DOMAIN")
	v.BindEnv("cors.allowedOrigins", "CORS_ALLOWED_ORIGINS")
	v.BindEnv("telemetry.serviceName", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.insecure", "OTEL_EXPORTER_OTLP_INSECURE")
	v.BindEnv("telemetry.stdout", "OTEL_STDOUT")
	v.BindEnv("seed.enabled", "SEED_DEMO_DATA")

	// Nếu file không tồn tại, Viper sẽ chỉ sử dụng các biến môi trường.
	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}
