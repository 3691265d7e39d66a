package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cometlog "github.com/cometbft/cometbft/libs/log"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strangelove-ventures/horcrux-recovery/config"
	"github.com/strangelove-ventures/horcrux-recovery/version"
	"gopkg.in/yaml.v2"
)

const (
	flagHome        = "home"
	flagLogLevel    = "log-level"
	flagOutput      = "output"
	flagMetricsFile = "metrics-textfile"

	envPrefix = "horcrux_recovery"
)

var (
	homeDir       string
	runtimeConfig config.RuntimeConfig
	settings      *viper.Viper
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "horcrux-recovery",
		Short: "Recover workspace master keys from a recovery kit, derive asset keys and sign offline",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return writeMetrics(settings.GetString(flagMetricsFile))
		},
	}

	cmd.PersistentFlags().StringVar(&homeDir, flagHome, "", "Directory for config (default is $HOME/.horcrux-recovery)")
	cmd.PersistentFlags().String(flagLogLevel, "", "Log level: debug, info, error or none")
	cmd.PersistentFlags().String(flagOutput, "", "Output format: json or yaml")
	cmd.PersistentFlags().String(flagMetricsFile, "", "Write prometheus metrics in text format to this file on exit")

	cmd.AddCommand(
		recoverCmd(),
		ncwSharesCmd(),
		deriveCmd(),
		signCmd(),
		publicKeysCmd(),
		assetsCmd(),
		configCmd(),
		version.NewVersionCommand(printOutput),
	)
	return cmd
}

// Execute builds the root command and runs it. This is called by main.main().
func Execute() {
	handleInitError(rootCmd().Execute())
}

// initConfig reads in the config file and ENV variables if set. Flags win
// over the environment, which wins over the config file.
func initConfig(cmd *cobra.Command) error {
	home := homeDir
	if home == "" {
		userHome, err := homedir.Dir()
		if err != nil {
			return err
		}
		home = filepath.Join(userHome, ".horcrux-recovery")
	}
	runtimeConfig = config.NewRuntimeConfig(home)

	settings = viper.New()
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	if err := settings.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if runtimeConfig.ConfigExists() {
		if err := runtimeConfig.ReadConfigFile(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", runtimeConfig.ConfigFile, err)
		}
	}
	if settings.IsSet(flagLogLevel) {
		runtimeConfig.Config.LogLevel = settings.GetString(flagLogLevel)
	}
	if settings.IsSet(flagOutput) {
		runtimeConfig.Config.Output = settings.GetString(flagOutput)
	}
	return nil
}

// newLogger writes to stderr so that command output stays parseable.
func newLogger(cmd *cobra.Command, module string) (cometlog.Logger, error) {
	level := runtimeConfig.Config.LogLevel
	if level == "" {
		level = config.DefaultLogLevel
	}
	if level == "none" {
		return cometlog.NewNopLogger(), nil
	}
	allow, err := cometlog.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	logger := cometlog.NewTMLogger(cometlog.NewSyncWriter(cmd.ErrOrStderr()))
	return cometlog.NewFilter(logger, allow).With("module", module), nil
}

func printOutput(out io.Writer, v any) error {
	var (
		bz  []byte
		err error
	)
	switch runtimeConfig.Config.Output {
	case "", config.OutputJSON:
		bz, err = json.MarshalIndent(v, "", "  ")
	case config.OutputYAML:
		bz, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("invalid output %q, must be %s or %s", runtimeConfig.Config.Output, config.OutputJSON, config.OutputYAML)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, strings.TrimRight(string(bz), "\n"))
	return err
}

func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// readFileFlag reads the file named by a flag, or returns nil when unset.
func readFileFlag(cmd *cobra.Command, name string) ([]byte, error) {
	path, _ := cmd.Flags().GetString(name)
	if path == "" {
		return nil, nil
	}
	bz, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read --%s: %w", name, err)
	}
	return bz, nil
}

// secretSetting reads a flag that may also be supplied through the environment,
// e.g. HORCRUX_RECOVERY_RSA_PASSPHRASE.
func secretSetting(name string) string {
	return settings.GetString(name)
}

func handleInitError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
