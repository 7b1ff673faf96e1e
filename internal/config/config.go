package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/harshilnayi/BlockScope/internal/scoring"
)

// FileName is searched for upwards from the scan target.
const FileName = ".blockscope.yaml"

type IgnoreRule struct {
	Rule    string `mapstructure:"rule" yaml:"rule"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
	Reason  string `mapstructure:"reason" yaml:"reason,omitempty"`
	Expires string `mapstructure:"expires" yaml:"expires,omitempty"` // YYYY-MM-DD
}

// Active reports whether the rule still applies at now. Unparsable dates never expire.
func (r IgnoreRule) Active(now time.Time) bool {
	if r.Expires == "" {
		return true
	}
	t, err := time.Parse("2006-01-02", r.Expires)
	if err != nil {
		return true
	}
	return now.Before(t.AddDate(0, 0, 1))
}

type Tool struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

type ExternalTools struct {
	// Cache keeps successful analyzer results keyed by source hash.
	Cache    bool   `mapstructure:"cache" yaml:"cache"`
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir,omitempty"`
	Slither  Tool   `mapstructure:"slither" yaml:"slither"`
	Mythril  Tool   `mapstructure:"mythril" yaml:"mythril"`
	Solhint  Tool   `mapstructure:"solhint" yaml:"solhint"`
}

type Config struct {
	SeverityThreshold  string         `mapstructure:"severity_threshold" yaml:"severity_threshold"`
	TimeBudgetMs       int            `mapstructure:"time_budget_ms" yaml:"time_budget_ms"`
	AdapterTimeoutMs   int            `mapstructure:"adapter_timeout_ms" yaml:"adapter_timeout_ms"`
	Workers            int            `mapstructure:"workers" yaml:"workers"`
	Rules              []string       `mapstructure:"rules" yaml:"rules"`
	Ignore             []IgnoreRule   `mapstructure:"ignore" yaml:"ignore"`
	ExternalTools      ExternalTools  `mapstructure:"external_tools" yaml:"external_tools"`
	CorroborationBonus float64        `mapstructure:"corroboration_bonus" yaml:"corroboration_bonus"`
	Scoring            scoring.Config `mapstructure:"scoring" yaml:"scoring"`
	// Taxonomy overrides tool category -> kind, keyed by tool name.
	Taxonomy map[string]map[string]string `mapstructure:"taxonomy" yaml:"taxonomy"`
}

func Default() Config {
	return Config{
		SeverityThreshold:  "low",
		TimeBudgetMs:       30000,
		AdapterTimeoutMs:   20000,
		Workers:            0,
		Rules:              []string{},
		Ignore:             []IgnoreRule{},
		ExternalTools:      ExternalTools{Cache: true},
		CorroborationBonus: 0.25,
		Scoring:            scoring.DefaultConfig(),
		Taxonomy:           map[string]map[string]string{},
	}
}

func (c Config) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetMs) * time.Millisecond
}

func (c Config) AdapterTimeout() time.Duration {
	return time.Duration(c.AdapterTimeoutMs) * time.Millisecond
}

func (c Config) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if c.CorroborationBonus < 0 || c.CorroborationBonus > 1 {
		return fmt.Errorf("corroboration_bonus %v outside [0,1]", c.CorroborationBonus)
	}
	if c.TimeBudgetMs < 0 || c.AdapterTimeoutMs < 0 {
		return fmt.Errorf("time budgets must not be negative")
	}
	return nil
}

// NewViper returns a viper instance reading BLOCKSCOPE_* environment overrides, e.g.
// BLOCKSCOPE_SCORING_CONFIDENCE_FLOOR. Callers may bind command flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BLOCKSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load layers defaults, the nearest config file above startDir, environment and any
// flags bound to v. It returns the path of the file used, if any.
func Load(v *viper.Viper, startDir string) (Config, string, error) {
	base, err := Marshal(Default())
	if err != nil {
		return Default(), "", err
	}
	if err := v.ReadConfig(bytes.NewReader(base)); err != nil {
		return Default(), "", fmt.Errorf("load defaults: %w", err)
	}
	path := Find(startDir)
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Default(), path, err
		}
		if err := v.MergeConfig(bytes.NewReader(b)); err != nil {
			return Default(), path, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), path, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

// Find searches upwards from startDir (or the directory of a file) for FileName.
func Find(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	if fi, err := os.Stat(dir); err == nil && !fi.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached root
			return ""
		}
		dir = parent
	}
}

func Marshal(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
