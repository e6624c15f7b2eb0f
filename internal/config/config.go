// Package config loads the truck and client settings from YAML with
// environment overrides.
package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"truckping/internal/journal"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Log struct {
	Env string `yaml:"env" env:"ENV" env-default:"local"`
	// File, when set, receives JSON logs in addition to stdout.
	File string `yaml:"log_file" env:"LOG_FILE"`
}

type Presence struct {
	Group    string        `yaml:"group" env:"PRESENCE_GROUP" env-default:"239.255.0.1:5000"`
	Interval time.Duration `yaml:"interval" env:"PRESENCE_INTERVAL" env-default:"1s"`
}

type Dispatch struct {
	ListenAddr   string        `yaml:"listen_addr" env:"LISTEN_ADDR" env-default:":6012"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" env-default:"2s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" env-default:"2s"`
	BaseETA      int           `yaml:"base_eta_min" env:"BASE_ETA_MIN" env-default:"5"`
}

type Position struct {
	StartLat      float64       `yaml:"start_lat" env:"START_LAT" env-default:"31.956"`
	StartLon      float64       `yaml:"start_lon" env:"START_LON" env-default:"35.945"`
	MaxStepMeters float64       `yaml:"max_step_meters" env:"MAX_STEP_METERS" env-default:"3"`
	StepInterval  time.Duration `yaml:"step_interval" env:"STEP_INTERVAL" env-default:"300ms"`
	// FixFile replaces the random walk with fixes read from this file.
	FixFile string `yaml:"fix_file" env:"FIX_FILE"`
}

type Truck struct {
	Log      `yaml:",inline"`
	TruckID  string         `yaml:"truck_id" env:"TRUCK_ID" env-default:"TRK01"`
	Presence Presence       `yaml:"presence"`
	Dispatch Dispatch       `yaml:"dispatch"`
	Position Position       `yaml:"position"`
	Journal  journal.Config `yaml:"journal"`
}

type Request struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT" env-default:"2s"`
	SendTimeout    time.Duration `yaml:"send_timeout" env:"SEND_TIMEOUT" env-default:"2s"`
	ReceiveTimeout time.Duration `yaml:"receive_timeout" env:"RECEIVE_TIMEOUT" env-default:"2s"`
}

type Client struct {
	Log        `yaml:",inline"`
	UserID     string        `yaml:"user_id" env:"USER_ID" env-default:"USR1"`
	Lat        float64       `yaml:"lat" env:"USER_LAT" env-default:"31.956"`
	Lon        float64       `yaml:"lon" env:"USER_LON" env-default:"35.945"`
	NearKM     float64       `yaml:"near_km" env:"NEAR_KM" env-default:"0.5"`
	Group      string        `yaml:"group" env:"PRESENCE_GROUP" env-default:"239.255.0.1:5000"`
	StaleAfter time.Duration `yaml:"stale_after" env:"STALE_AFTER" env-default:"3s"`
	MaxEntries int           `yaml:"max_entries" env:"MAX_ENTRIES" env-default:"0"`
	Refresh    time.Duration `yaml:"refresh" env:"REFRESH" env-default:"1s"`
	// WarmUp is how long ping listens for heartbeats before looking the truck up.
	WarmUp  time.Duration `yaml:"warm_up" env:"WARM_UP" env-default:"1s"`
	Request Request       `yaml:"request"`
}

// MustLoadTruck panics when the config cannot be read.
func MustLoadTruck(configPath string) *Truck {
	var cfg Truck
	mustRead(ResolvePath(configPath), &cfg)
	return &cfg
}

// MustLoadClient panics when the config cannot be read.
func MustLoadClient(configPath string) *Client {
	var cfg Client
	mustRead(ResolvePath(configPath), &cfg)
	return &cfg
}

// LoadTruck is MustLoadTruck returning the error instead.
func LoadTruck(configPath string) (*Truck, error) {
	var cfg Truck
	if err := read(ResolvePath(configPath), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadClient(configPath string) (*Client, error) {
	var cfg Client
	if err := read(ResolvePath(configPath), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mustRead(configPath string, cfg interface{}) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("config file does not exist: " + configPath)
		}
	}
	if err := read(configPath, cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}
}

// An empty path means defaults plus environment only.
func read(configPath string, cfg interface{}) error {
	if configPath == "" {
		return cleanenv.ReadEnv(cfg)
	}
	return cleanenv.ReadConfig(configPath, cfg)
}

// ResolvePath picks the config file.
// Priority: flag > env > none.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("CONFIG_PATH")
}
