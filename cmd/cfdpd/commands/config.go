package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// daemonConfig is cfdpd's process configuration: where to find the
// entity's MIB, which transport.Transport to bring up, and where to
// serve the HTTP gateway and metrics endpoint. This is distinct from
// mib.Config, which is the entity's own CFDP configuration loaded
// separately from MIBFile.
type daemonConfig struct {
	MIBFile     string `mapstructure:"mib_file"`
	Transport   string `mapstructure:"transport"`
	ListenAddr  string `mapstructure:"listen_addr"`
	HTTPAddr    string `mapstructure:"http_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// loadDaemonConfig reads cfgFile (or ./cfdpd.yaml if empty) merged
// with CFDPD_-prefixed environment overrides, the same precedence
// order pkg/config.Config documents for dittofs.
func loadDaemonConfig(cfgFile string) (*daemonConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("CFDPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("transport", "tcp")
	v.SetDefault("listen_addr", ":4556")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("metrics_addr", ":9090")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("cfdpd")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &daemonConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MIBFile == "" {
		return nil, fmt.Errorf("mib_file is required")
	}
	return cfg, nil
}
