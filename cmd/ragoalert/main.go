package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"ragoalert/internal/cli"
	"ragoalert/internal/config"
	"ragoalert/internal/logging"
)

func main() {
	// A local .env may carry SMTP credentials; absence is fine.
	_ = godotenv.Load()

	configDir := configDirFromArgs(os.Args[1:])
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.System.LogLevel
	if cfg.System.LogFile != "" {
		logCfg.FilePath = cfg.System.LogFile
	}
	logger := logging.NewLoggerWithConfig(logCfg)

	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}
	users, err := config.NewUsersManager(filepath.Join(configDir, "users.yaml"), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "users: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd(cfg, users, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDirFromArgs pre-parses the --config flag, which has to take
// effect before cobra runs.
func configDirFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if len(arg) > len("--config=") && arg[:len("--config=")] == "--config=" {
			return arg[len("--config="):]
		}
	}
	return os.Getenv("RAGOALERT_CONFIG_DIR")
}
