package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileName = "injectcore"
	configFileType = "yaml"

	cfgKeyListenAddr      = "listen_addr"
	cfgKeyAdvisoryKey     = "advisory_api_key"
	cfgKeyAdvisoryModel   = "advisory_model"
	cfgKeyAdvisoryTimeout = "advisory_timeout"

	defaultListenAddr      = ":8080"
	defaultAdvisoryTimeout = 15 * time.Second
)

type serverConfig struct {
	ListenAddr      string
	AdvisoryKey     string
	AdvisoryModel   string
	AdvisoryTimeout time.Duration
}

// loadConfig reads injectcore.yaml from the working directory when present and
// overlays INJECTCORE_* environment variables. A missing config file is not an
// error. Storage and blob driver selection stay environment-only; see the
// respective factory packages.
func loadConfig() (serverConfig, error) {
	v := viper.New()
	v.SetDefault(cfgKeyListenAddr, defaultListenAddr)
	v.SetDefault(cfgKeyAdvisoryTimeout, defaultAdvisoryTimeout)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(".")
	v.SetEnvPrefix("INJECTCORE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return serverConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	return serverConfig{
		ListenAddr:      v.GetString(cfgKeyListenAddr),
		AdvisoryKey:     v.GetString(cfgKeyAdvisoryKey),
		AdvisoryModel:   v.GetString(cfgKeyAdvisoryModel),
		AdvisoryTimeout: v.GetDuration(cfgKeyAdvisoryTimeout),
	}, nil
}
