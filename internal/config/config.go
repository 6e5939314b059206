// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment describes the machine a benchmark ran on. It is read once at
// start and reported alongside results.
type Environment struct {
	CPUType                             string `mapstructure:"cpu_type"`                               // e.g., Intel i7-9750HF
	AcceleratorType                     string `mapstructure:"accelerator_type"`                       // e.g., DeepX M1(NPU)
	Submitter                           string `mapstructure:"submitter"`                              // e.g., DeepX
	CPUCoreCount                        string `mapstructure:"cpu_core_count"`                         // e.g., 16
	CPURAMCapacity                      string `mapstructure:"cpu_ram_capacity"`                       // e.g., 32GB
	Cooling                             string `mapstructure:"cooling"`                                // e.g., Air, Liquid, Passive
	CoolingOption                       string `mapstructure:"cooling_option"`                         // e.g., Active, Passive
	CPUAcceleratorInterconnectInterface string `mapstructure:"cpu_accelerator_interconnect_interface"` // e.g., PCIe Gen5 x16
	BenchmarkModel                      string `mapstructure:"benchmark_model"`                        // e.g., ResNet-50
	OperatingSystem                     string `mapstructure:"operating_system"`                       // e.g., Ubuntu 20.04.5 LTS
}

// DefaultEnvironment returns an Environment with every field unknown.
func DefaultEnvironment() Environment {
	return Environment{}
}

// Config holds all configuration for the submitter
type Config struct {
	// Model configuration
	Model      string `mapstructure:"model"`
	Profile    string `mapstructure:"profile"`
	Threads    int    `mapstructure:"threads"`
	ORTLibrary string `mapstructure:"ort_library"`
	InputName  string `mapstructure:"input_name"`
	OutputName string `mapstructure:"output_name"`

	// ModelCacheDir receives models fetched from gs:// URIs
	ModelCacheDir string `mapstructure:"model_cache_dir"`

	// Decoder selects the image decoder: "std" or "opencv"
	Decoder string `mapstructure:"decoder"`

	// Preprocessed buffer cache; empty Redis disables it
	Redis    string        `mapstructure:"redis"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// Observability
	MetricsPort int    `mapstructure:"metrics_port"`
	LogLevel    string `mapstructure:"log_level"`
	OTELEnabled bool   `mapstructure:"otel_enabled"`

	// Feature flags
	UseMockInference bool `mapstructure:"use_mock_inference"`

	Environment Environment `mapstructure:"environment"`
}

// Image decoders selectable with the decoder key.
const (
	DecoderStd    = "std"
	DecoderOpenCV = "opencv"
)

var envKeys = []string{
	"cpu_type", "accelerator_type", "submitter", "cpu_core_count", "cpu_ram_capacity",
	"cooling", "cooling_option", "cpu_accelerator_interconnect_interface",
	"benchmark_model", "operating_system",
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	v.SetDefault("model", "resnet50_v2_opset10_dynamicBatch.onnx")
	v.SetDefault("profile", "resnet50")
	v.SetDefault("threads", 4)
	v.SetDefault("ort_library", "")
	v.SetDefault("input_name", "")
	v.SetDefault("output_name", "")
	v.SetDefault("model_cache_dir", "models")
	v.SetDefault("decoder", DecoderStd)
	v.SetDefault("redis", "")
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("metrics_port", 9100)
	v.SetDefault("log_level", "info")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("use_mock_inference", false)
	for _, key := range envKeys {
		v.SetDefault("environment."+key, "")
	}

	// Environment variable configuration
	v.SetEnvPrefix("BMT_SUBMITTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load loads configuration from environment variables and an optional config file.
// Priority (highest to lowest): env vars > config file > defaults
func Load() (*Config, error) {
	v := newViper()

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/bmt-submitter/")
	v.AddConfigPath("$HOME/.bmt-submitter")

	// Read config file if present (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadWithConfigFile loads configuration from a specific config file
func LoadWithConfigFile(configPath string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("invalid thread count: %d", c.Threads)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.MetricsPort)
	}
	if c.Model == "" && !c.UseMockInference {
		return fmt.Errorf("model path is required when not using mock inference")
	}
	if c.Profile == "" {
		return fmt.Errorf("model profile is required")
	}
	if c.Decoder != DecoderStd && c.Decoder != DecoderOpenCV {
		return fmt.Errorf("invalid decoder: %q (want %s or %s)", c.Decoder, DecoderStd, DecoderOpenCV)
	}
	if c.Redis != "" && c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache ttl: %s", c.CacheTTL)
	}
	return nil
}
