// Package config manages the system configuration and the per-user
// monitoring profiles.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all system-level configuration.
type Config struct {
	SMTP          SMTPConfig          `mapstructure:"smtp" json:"smtp"`
	Web           WebConfig           `mapstructure:"web" json:"web"`
	System        SystemConfig        `mapstructure:"system" json:"system"`
	Monitoring    MonitoringConfig    `mapstructure:"monitoring" json:"monitoring"`
	TrendAnalysis TrendAnalysisConfig `mapstructure:"trend_analysis" json:"trend_analysis"`
	StockPools    map[string][]string `mapstructure:"stock_pools" json:"stock_pools"`
}

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Server     string `mapstructure:"server" json:"server"`
	Port       int    `mapstructure:"port" json:"port"`
	User       string `mapstructure:"user" json:"user"`
	Password   string `mapstructure:"password" json:"password"`
	SenderName string `mapstructure:"sender_name" json:"sender_name"`
}

// WebConfig holds the config API listener settings.
type WebConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

// SystemConfig holds process-level settings.
type SystemConfig struct {
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogFile  string `mapstructure:"log_file" json:"log_file"`
	Timezone string `mapstructure:"timezone" json:"timezone"`
}

// MonitoringConfig holds the scheduling parameters of the two
// monitoring loops.
type MonitoringConfig struct {
	FluctuationTickSeconds    int `mapstructure:"fluctuation_tick_seconds" json:"fluctuation_tick_seconds"`
	FluctuationWorkers        int `mapstructure:"fluctuation_workers" json:"fluctuation_workers"`
	FluctuationTimeoutSeconds int `mapstructure:"fluctuation_timeout_seconds" json:"fluctuation_timeout_seconds"`
	TrendTickSeconds          int `mapstructure:"trend_tick_seconds" json:"trend_tick_seconds"`
	TrendWorkers              int `mapstructure:"trend_workers" json:"trend_workers"`
	TrendTimeoutSeconds       int `mapstructure:"trend_timeout_seconds" json:"trend_timeout_seconds"`
}

// TrendAnalysisConfig holds indicator periods and scoring thresholds.
type TrendAnalysisConfig struct {
	EMAShortPeriod     int     `mapstructure:"ema_short_period" yaml:"ema_short_period" json:"ema_short_period"`
	EMALongPeriod      int     `mapstructure:"ema_long_period" yaml:"ema_long_period" json:"ema_long_period"`
	MACDFastPeriod     int     `mapstructure:"macd_fast_period" yaml:"macd_fast_period" json:"macd_fast_period"`
	MACDSlowPeriod     int     `mapstructure:"macd_slow_period" yaml:"macd_slow_period" json:"macd_slow_period"`
	MACDSignalPeriod   int     `mapstructure:"macd_signal_period" yaml:"macd_signal_period" json:"macd_signal_period"`
	ADXPeriod          int     `mapstructure:"adx_period" yaml:"adx_period" json:"adx_period"`
	ADXThreshold       float64 `mapstructure:"adx_threshold" yaml:"adx_threshold" json:"adx_threshold"`
	BBPeriod           int     `mapstructure:"bb_period" yaml:"bb_period" json:"bb_period"`
	BBStdDev           float64 `mapstructure:"bb_std_dev" yaml:"bb_std_dev" json:"bb_std_dev"`
	RSIPeriod          int     `mapstructure:"rsi_period" yaml:"rsi_period" json:"rsi_period"`
	RSIOverbought      float64 `mapstructure:"rsi_overbought" yaml:"rsi_overbought" json:"rsi_overbought"`
	RSIOversold        float64 `mapstructure:"rsi_oversold" yaml:"rsi_oversold" json:"rsi_oversold"`
	UpTrendThreshold   int     `mapstructure:"up_trend_threshold" yaml:"up_trend_threshold" json:"up_trend_threshold"`
	DownTrendThreshold int     `mapstructure:"down_trend_threshold" yaml:"down_trend_threshold" json:"down_trend_threshold"`
	BuyThreshold       float64 `mapstructure:"buy_threshold" yaml:"buy_threshold" json:"buy_threshold"`
	SellThreshold      float64 `mapstructure:"sell_threshold" yaml:"sell_threshold" json:"sell_threshold"`
	TrendWindow        int     `mapstructure:"trend_window" yaml:"trend_window" json:"trend_window"`
	ChangeWindow       int     `mapstructure:"change_window" yaml:"change_window" json:"change_window"`

	SignalWeights SignalWeights `mapstructure:"signal_weights" yaml:"signal_weights" json:"signal_weights"`
}

// SignalWeights assigns each indicator family its share of the
// composite buy/sell score. A profile that omits the block gets the
// defaults.
type SignalWeights struct {
	EMACross    float64 `mapstructure:"ema_cross" yaml:"ema_cross" json:"ema_cross"`
	MACDCross   float64 `mapstructure:"macd_cross" yaml:"macd_cross" json:"macd_cross"`
	ADXStrength float64 `mapstructure:"adx_strength" yaml:"adx_strength" json:"adx_strength"`
	BBPosition  float64 `mapstructure:"bb_position" yaml:"bb_position" json:"bb_position"`
	RSILevel    float64 `mapstructure:"rsi_level" yaml:"rsi_level" json:"rsi_level"`
}

// IsZero reports whether no weight was configured.
func (w SignalWeights) IsZero() bool {
	return w == SignalWeights{}
}

// DefaultSignalWeights returns the standard weighting.
func DefaultSignalWeights() SignalWeights {
	return SignalWeights{
		EMACross:    0.3,
		MACDCross:   0.2,
		ADXStrength: 0.2,
		BBPosition:  0.15,
		RSILevel:    0.15,
	}
}

// DefaultTrendAnalysis returns the standard daily-chart analysis
// configuration.
func DefaultTrendAnalysis() TrendAnalysisConfig {
	return TrendAnalysisConfig{
		EMAShortPeriod:     7,
		EMALongPeriod:      20,
		MACDFastPeriod:     12,
		MACDSlowPeriod:     26,
		MACDSignalPeriod:   9,
		ADXPeriod:          14,
		ADXThreshold:       25.0,
		BBPeriod:           20,
		BBStdDev:           2.0,
		RSIPeriod:          14,
		RSIOverbought:      70.0,
		RSIOversold:        30.0,
		UpTrendThreshold:   3,
		DownTrendThreshold: 3,
		BuyThreshold:       0.8,
		SellThreshold:      0.8,
		TrendWindow:        10,
		ChangeWindow:       2,
		SignalWeights:      DefaultSignalWeights(),
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/ragoalert"
	}
	return filepath.Join(home, ".config", "ragoalert")
}

// Load reads config.yaml from the given directory, applies defaults
// and environment overrides, and validates the result. An empty
// configDir falls back to the default directory. A missing file yields
// the defaults rather than an error.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.yaml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.sender_name", "RagoAlert")
	v.SetDefault("web.host", "0.0.0.0")
	v.SetDefault("web.port", 8080)
	v.SetDefault("system.log_level", "info")
	v.SetDefault("system.timezone", "UTC")
	v.SetDefault("monitoring.fluctuation_tick_seconds", 60)
	v.SetDefault("monitoring.fluctuation_workers", 5)
	v.SetDefault("monitoring.fluctuation_timeout_seconds", 30)
	v.SetDefault("monitoring.trend_tick_seconds", 1800)
	v.SetDefault("monitoring.trend_workers", 3)
	v.SetDefault("monitoring.trend_timeout_seconds", 300)

	d := DefaultTrendAnalysis()
	v.SetDefault("trend_analysis.ema_short_period", d.EMAShortPeriod)
	v.SetDefault("trend_analysis.ema_long_period", d.EMALongPeriod)
	v.SetDefault("trend_analysis.macd_fast_period", d.MACDFastPeriod)
	v.SetDefault("trend_analysis.macd_slow_period", d.MACDSlowPeriod)
	v.SetDefault("trend_analysis.macd_signal_period", d.MACDSignalPeriod)
	v.SetDefault("trend_analysis.adx_period", d.ADXPeriod)
	v.SetDefault("trend_analysis.adx_threshold", d.ADXThreshold)
	v.SetDefault("trend_analysis.bb_period", d.BBPeriod)
	v.SetDefault("trend_analysis.bb_std_dev", d.BBStdDev)
	v.SetDefault("trend_analysis.rsi_period", d.RSIPeriod)
	v.SetDefault("trend_analysis.rsi_overbought", d.RSIOverbought)
	v.SetDefault("trend_analysis.rsi_oversold", d.RSIOversold)
	v.SetDefault("trend_analysis.up_trend_threshold", d.UpTrendThreshold)
	v.SetDefault("trend_analysis.down_trend_threshold", d.DownTrendThreshold)
	v.SetDefault("trend_analysis.buy_threshold", d.BuyThreshold)
	v.SetDefault("trend_analysis.sell_threshold", d.SellThreshold)
	v.SetDefault("trend_analysis.trend_window", d.TrendWindow)
	v.SetDefault("trend_analysis.change_window", d.ChangeWindow)
	v.SetDefault("trend_analysis.signal_weights.ema_cross", d.SignalWeights.EMACross)
	v.SetDefault("trend_analysis.signal_weights.macd_cross", d.SignalWeights.MACDCross)
	v.SetDefault("trend_analysis.signal_weights.adx_strength", d.SignalWeights.ADXStrength)
	v.SetDefault("trend_analysis.signal_weights.bb_position", d.SignalWeights.BBPosition)
	v.SetDefault("trend_analysis.signal_weights.rsi_level", d.SignalWeights.RSILevel)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		cfg.SMTP.Server = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.SMTP.Port = port
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.SMTP.User = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.System.LogLevel = v
	}
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	if c.SMTP.Port < 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("invalid smtp port: %d", c.SMTP.Port)
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web port: %d", c.Web.Port)
	}
	t := c.TrendAnalysis
	if t.EMAShortPeriod >= t.EMALongPeriod {
		return fmt.Errorf("ema_short_period must be below ema_long_period")
	}
	if t.MACDFastPeriod >= t.MACDSlowPeriod {
		return fmt.Errorf("macd_fast_period must be below macd_slow_period")
	}
	if t.RSIOversold >= t.RSIOverbought {
		return fmt.Errorf("rsi_oversold must be below rsi_overbought")
	}
	if t.TrendWindow < 2 {
		return fmt.Errorf("trend_window must be at least 2")
	}
	if t.ChangeWindow < 2 {
		return fmt.Errorf("change_window must be at least 2")
	}
	return nil
}
