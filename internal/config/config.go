package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 保存先の種類
const (
	StorageFile     = "file"
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

const (
	defaultAPIURL      = "http://localhost:5000/api"
	defaultHTTPTimeout = 15 * time.Second
)

// Configはクライアント全体の設定
type Config struct {
	APIURL      string        `yaml:"api_url"`      // バックエンドAPIのベースURL
	HTTPTimeout time.Duration `yaml:"http_timeout"` // 1リクエストのタイムアウト
	TraceHTTP   bool          `yaml:"trace_http"`   // otelhttpで送信をトレースするか

	Storage string `yaml:"storage"`  // file / memory / redis / postgres
	DataDir string `yaml:"data_dir"` // file保存先ディレクトリ

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	DatabaseURL string `yaml:"database_url"` // postgres保存時のDSN

	LogLevel string `yaml:"log_level"`
}

// Defaultは何も指定がないときの設定
func Default() Config {
	return Config{
		APIURL:      defaultAPIURL,
		HTTPTimeout: defaultHTTPTimeout,
		Storage:     StorageFile,
		DataDir:     defaultDataDir(),
		RedisAddr:   "localhost:6379",
		LogLevel:    "info",
	}
}

// Loadは .env → 環境変数 の順に読み込む。
// .env が無いのはエラーにしない。
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFileはYAMLファイルを土台にして、環境変数で上書きする。
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validateは必須チェック
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("BAZAR_API_URL is required")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("BAZAR_HTTP_TIMEOUT must be positive")
	}

	switch c.Storage {
	case StorageFile:
		if c.DataDir == "" {
			return fmt.Errorf("BAZAR_DATA_DIR is required for file storage")
		}
	case StorageMemory:
	case StorageRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for redis storage")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("BAZAR_STORAGE must be one of file, memory, redis, postgres: got %q", c.Storage)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BAZAR_API_URL"); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("BAZAR_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BAZAR_HTTP_TIMEOUT must be duration: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if v := os.Getenv("BAZAR_TRACE_HTTP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BAZAR_TRACE_HTTP must be bool: %w", err)
		}
		cfg.TraceHTTP = b
	}
	if v := os.Getenv("BAZAR_STORAGE"); v != "" {
		cfg.Storage = strings.ToLower(v)
	}
	if v := os.Getenv("BAZAR_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB must be number: %w", err)
		}
		cfg.RedisDB = i
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// ユーザーごとの設定ディレクトリ（取れなければカレント）
func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".bazar"
	}
	return filepath.Join(dir, "bazar")
}
