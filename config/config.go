package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddr string `toml:"listen_addr"`
	DBDriver   string `toml:"db_driver"`
	DBDSN      string `toml:"db_dsn"`
}

func DefaultConfig() *Config {
	return &Config{
		ListenAddr: ":8000",
		DBDriver:   "mysql",
		DBDSN:      "admin:12345678@tcp(127.0.0.1:3306)/defecttrack?charset=utf8mb4&parseTime=True&loc=Local",
	}
}

// Load reads config.toml (or the file named by DEFECTTRACK_CONFIG) when it
// exists, then applies environment overrides.
func Load() *Config {
	cfg := DefaultConfig()

	path := os.Getenv("DEFECTTRACK_CONFIG")
	if path == "" {
		path = "config.toml"
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			panic("Failed to parse config file: " + err.Error())
		}
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.DBDriver = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DBDSN = v
	}

	return cfg
}
