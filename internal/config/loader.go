package config

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/rosterhq/roster/internal/db"
)

// Config aggregates every tunable the server reads at startup.
type Config struct {
	ListenAddr      string
	AllowedOrigins  []string
	MigrationsPath  string
	IngestBatchSize int
	Database        db.Config
}

// Default returns the configuration used when no config file or
// environment override is present.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		AllowedOrigins:  []string{"http://localhost:3000"},
		MigrationsPath:  "./migrations",
		IngestBatchSize: 500,
		Database:        db.DefaultConfig(),
	}
}

// Load reads config.yaml from configPath, applying environment overrides
// with the ROSTER_ prefix (e.g. ROSTER_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("ROSTER")

	v.BindEnv("server.listen_addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		logrus.Info("no config.yaml found, using defaults and env vars")
	} else {
		logrus.WithField("file", v.ConfigFileUsed()).Info("loaded configuration")
	}

	if v.IsSet("server.listen_addr") {
		cfg.ListenAddr = v.GetString("server.listen_addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.migrations_path") {
		cfg.MigrationsPath = v.GetString("server.migrations_path")
	}
	if v.IsSet("ingestion.batch_size") {
		if size := v.GetInt("ingestion.batch_size"); size > 0 {
			cfg.IngestBatchSize = size
		}
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
