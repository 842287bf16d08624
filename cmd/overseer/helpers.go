package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/viper"

	"overseer/internal/executor"
	"overseer/internal/store"
	"overseer/internal/telemetry"
)

func newLogger() *slog.Logger {
	return telemetry.NewLogger(viper.GetBool("debug"), viper.GetString("log_file"), false)
}

func projectPath() (string, error) {
	return filepath.Abs(viper.GetString("project"))
}

func openStore() (store.Store, error) {
	return store.New(store.Config{
		Type:             viper.GetString("store.type"),
		ConnectionString: viper.GetString("store.connection_string"),
	})
}

// buildExecutor selects the agent backend from configuration. The mock flag
// wins so any command can be exercised without an agent installed.
func buildExecutor(logger *slog.Logger, mock bool) (executor.Executor, error) {
	if mock {
		return executor.NewMockExecutor(), nil
	}
	switch viper.GetString("executor.type") {
	case "docker":
		return executor.NewDockerExecutor(
			viper.GetString("executor.image"),
			viper.GetString("executor.network"),
			logger,
		)
	case "local", "":
		cmd := viper.GetString("executor.command")
		if cmd == "" {
			return nil, fmt.Errorf("executor.command is not configured (set OVERSEER_EXECUTOR_COMMAND or use --mock)")
		}
		return executor.NewLocalExecutor(cmd, logger), nil
	default:
		return nil, fmt.Errorf("unsupported executor type: %s", viper.GetString("executor.type"))
	}
}
