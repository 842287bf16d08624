package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load initializes configuration from file and environment variables.
func Load(cfgFile string) {
	// explicit .env loading; missing file is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("overseer")
	}

	viper.SetEnvPrefix("OVERSEER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// Missing config file is not an error; env and defaults suffice.
	_ = viper.ReadInConfig()
}

func setDefaults() {
	viper.SetDefault("max_concurrency", 3)
	viper.SetDefault("poll_interval", "5s")
	viper.SetDefault("skip_verification", false)
	viper.SetDefault("debug", false)
	viper.SetDefault("log_file", "")

	// Storage
	viper.SetDefault("store.type", "sqlite")
	viper.SetDefault("store.connection_string", "")

	// Executor
	viper.SetDefault("executor.type", "local")
	viper.SetDefault("executor.command", "")
	viper.SetDefault("executor.image", "")
	viper.SetDefault("executor.network", "")

	// Metrics
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.addr", ":2112")

	// Notifications
	viper.SetDefault("notifications.slack.enabled", false)
	viper.SetDefault("notifications.slack.channel", "#general")
}
