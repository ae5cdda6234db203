package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// 品種コードの採番方式
const (
	TypeCodeIndex  = "index"
	TypeCodeBinary = "binary"
)

type Config struct {
	DatabasePath     string `json:"databasePath" split_words:"true"`
	ProductTypesFile string `json:"productTypesFile" split_words:"true"`
	ColorsFile       string `json:"colorsFile" split_words:"true"`
	ListEncoding     string `json:"listEncoding" split_words:"true"`

	// TypeCodeMode は "index" (リスト位置 1始まり) または "binary" (SpecialType なら 1、それ以外 0)。
	TypeCodeMode string `json:"typeCodeMode" split_words:"true"`
	SpecialType  string `json:"specialType" split_words:"true"`

	SequenceDigits int `json:"sequenceDigits" split_words:"true"`

	UndoWindow     int `json:"undoWindow" split_words:"true"`
	TickIntervalMs int `json:"tickIntervalMs" split_words:"true"`

	ListenAddr string `json:"listenAddr" split_words:"true"`
	LogLevel   string `json:"logLevel" split_words:"true"`
	LogFormat  string `json:"logFormat" split_words:"true"`
	OpenWindow bool   `json:"openWindow" split_words:"true"`
}

const (
	DefaultConfigPath = "./batchgen_config.json"
	envPrefix         = "BATCHGEN"
)

// Default は設定ファイルがないときの設定を返します。
func Default() Config {
	return Config{
		DatabasePath:     "./batchgen.db",
		ProductTypesFile: "./product_types.txt",
		ColorsFile:       "./colors.txt",
		ListEncoding:     "utf-8",
		TypeCodeMode:     TypeCodeIndex,
		SequenceDigits:   3,
		UndoWindow:       10,
		TickIntervalMs:   1000,
		ListenAddr:       "127.0.0.1:8080",
		LogLevel:         "info",
		LogFormat:        "text",
		OpenWindow:       true,
	}
}

// Load は設定ファイルを読み込み、BATCHGEN_* 環境変数で上書きします。
// ファイルが存在しない場合はデフォルト値を使います。
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err == nil {
		if err := json.Unmarshal(file, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("apply environment overrides: %w", err)
	}

	cfg.fillDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.SequenceDigits == 0 {
		c.SequenceDigits = def.SequenceDigits
	}
	if c.UndoWindow == 0 {
		c.UndoWindow = def.UndoWindow
	}
	if c.TickIntervalMs == 0 {
		c.TickIntervalMs = def.TickIntervalMs
	}
	if c.TypeCodeMode == "" {
		c.TypeCodeMode = def.TypeCodeMode
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
}

// Validate は設定値を検証します。
func (c Config) Validate() error {
	switch c.TypeCodeMode {
	case TypeCodeIndex:
	case TypeCodeBinary:
		if c.SpecialType == "" {
			return fmt.Errorf("typeCodeMode %q requires specialType", c.TypeCodeMode)
		}
	default:
		return fmt.Errorf("invalid typeCodeMode: %q", c.TypeCodeMode)
	}
	if c.SequenceDigits < 1 || c.SequenceDigits > 6 {
		return fmt.Errorf("sequenceDigits must be between 1 and 6: %d", c.SequenceDigits)
	}
	if c.UndoWindow < 1 {
		return fmt.Errorf("undoWindow must be positive: %d", c.UndoWindow)
	}
	if c.TickIntervalMs < 1 {
		return fmt.Errorf("tickIntervalMs must be positive: %d", c.TickIntervalMs)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("databasePath is required")
	}
	if c.ProductTypesFile == "" || c.ColorsFile == "" {
		return fmt.Errorf("productTypesFile and colorsFile are required")
	}
	return nil
}

// TickInterval はカウントダウン1単位の長さです。
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Save は設定を検証してから path に書き込みます。反映は次回起動時です。
func Save(path string, c Config) error {
	c.fillDefaults()
	if err := c.Validate(); err != nil {
		return err
	}
	file, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, file, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
