// Package config loads process configuration into a single typed struct
// using viper, the same way the rest of this codebase's ancestry does.
package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var config *Config
var m sync.Mutex

// Config is the root configuration object for the media core process.
// Remote object-store credentials are per-catalog and live in the
// `storage` table, not here: this struct only covers process-wide
// concerns that have no natural home in the relational index.
type Config struct {
	Env       string    `yaml:"env"`
	App       App       `yaml:"app"`
	Log       Log       `yaml:"log"`
	Scheduler Scheduler `yaml:"scheduler"`
	Postgres  Postgres  `yaml:"postgres"`
	Redis     Redis     `yaml:"redis"`
	TaskQueue TaskQueue `yaml:"taskQueue"`
	Storage   Storage   `yaml:"storage"`
}

type App struct {
	Name string `yaml:"name"`
}

type Log struct {
	Level        string `yaml:"level"`
	FileEnabled  bool   `yaml:"fileEnabled"`
	FilePath     string `yaml:"filePath"`
	FileSize     int    `yaml:"fileSize"`
	FileCompress bool   `yaml:"fileCompress"`
	MaxAge       int    `yaml:"maxAge"`
	MaxBackups   int    `yaml:"maxBackups"`
}

// Postgres is the pool configuration for the relational index (§4.2).
// Min/max default to 5/10, the pool sizing the catalog service shares
// across every request and background task.
type Postgres struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Schema          string `yaml:"schema"`
	MinConnections  int32  `yaml:"minConnections"`
	MaxConnections  int32  `yaml:"maxConnections"`
	MaxConnIdleTime int32  `yaml:"maxConnIdleTime"`
}

// DSN builds the libpq connection string pgx expects.
func (p Postgres) DSN() string {
	schema := p.Schema
	if schema == "" {
		schema = "public"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s search_path=%s",
		p.Host, p.Port, p.Username, p.Password, p.Database, schema,
	)
}

// Redis backs the optional hot caches (token verification, compiled
// search SQL). A zero-value Redis (empty Host) disables the cache layer;
// callers must treat that as a permanent cache miss, never an error.
type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	Database int    `yaml:"database"`
}

func (r Redis) Enabled() bool {
	return r.Host != ""
}

func (r Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TaskQueue controls the two worker lanes described in §4.4.
type TaskQueue struct {
	CheapWorkers     int `yaml:"cheapWorkers"`
	ExpensiveWorkers int `yaml:"expensiveWorkers"`
	MaxWorkerHosts   int `yaml:"maxWorkerHosts"`
}

func (t TaskQueue) withDefaults() TaskQueue {
	if t.CheapWorkers <= 0 {
		t.CheapWorkers = 3
	}
	if t.ExpensiveWorkers <= 0 {
		t.ExpensiveWorkers = 1
	}
	return t
}

// Storage holds the process-wide local cache and temp scratch roots.
type Storage struct {
	LocalRoot string `yaml:"localRoot"`
	TempRoot  string `yaml:"tempRoot"`
}

// Scheduler drives the maintenance cron loop (VerifyStorage / UpdateSearches sweeps).
type Scheduler struct {
	Timezone           string `yaml:"timezone"`
	VerifyStorageCron  string `yaml:"verifyStorageCron"`
	UpdateSearchesCron string `yaml:"updateSearchesCron"`
}

// GetConfig returns the process-wide config previously loaded by SetConfig.
func GetConfig() *Config {
	return config
}

// SetConfig reads configFile via viper, overlays a ".env" file if present,
// and stores the decoded result for GetConfig to return.
func SetConfig(configFile string) {
	m.Lock()
	defer m.Unlock()

	_ = godotenv.Load()

	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error getting config file, %s", err)
	}

	var decoded Config
	if err := viper.Unmarshal(&decoded); err != nil {
		fmt.Println("Unable to decode into struct, ", err)
		return
	}

	decoded.TaskQueue = decoded.TaskQueue.withDefaults()
	if decoded.Postgres.MinConnections <= 0 {
		decoded.Postgres.MinConnections = 5
	}
	if decoded.Postgres.MaxConnections <= 0 {
		decoded.Postgres.MaxConnections = 10
	}

	config = &decoded
}
