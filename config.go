package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port      int            `json:"port"`
	Env       string         `json:"env"`
	Pepper    string         `json:"pepper"`
	HMACKey   string         `json:"hmac_key"`
	CSRFKey   string         `json:"csrf_key"`
	ImagesDir string         `json:"images_dir"`
	Database  PostgresConfig `json:"database"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:      1111,
		Env:       "dev",
		Pepper:    "secret-random-string",
		HMACKey:   "secret-hmac-key",
		CSRFKey:   "32-byte-long-auth-key-for-csrf!!",
		ImagesDir: "images",
		Database:  DefaultPostgresConfig(),
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "flock_dev",
	}
}

// LoadConfig loads configuration from a .config.json file if present,
// otherwise it falls back to the default dev setup. In production the file
// is required and the app refuses to start without it. A .env file, if
// present, is loaded first; environment variables override the database
// credentials either way.
func LoadConfig(isProd bool) Config {
	_ = godotenv.Load()

	c := DefaultConfig()
	f, err := os.Open(".config.json")
	if err != nil {
		if isProd {
			panic("No .config.json provided, refusing to start in production.")
		}
	} else {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			panic(err)
		}
		logrus.Info("successfully loaded .config.json")
	}

	applyEnvOverrides(&c.Database)
	return c
}

// applyEnvOverrides lets the environment override the database credentials,
// so that deployments don't have to put secrets into the config file.
func applyEnvOverrides(pc *PostgresConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		pc.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			pc.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		pc.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		pc.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		pc.Name = name
	}
}
