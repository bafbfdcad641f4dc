package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/atikulmunna/syslens/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "syslens",
	Short: "syslens: filter and export syslog records",
	Long: `syslens loads syslog text files and diagnostic zip bundles, narrows the
records by date, time of day and keyword chains, and exports the result as
CSV or reconstructed log lines. It can also run as an HTTP service.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(viper.GetViper()); err != nil {
			return err
		}
		logger = cfg.Logger()
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.syslens.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")
	flags.String("work-dir", "", "directory for unpacked archives (default: <tmp>/syslens)")
	flags.Int("parallel", 4, "number of log files loaded concurrently")

	cobra.CheckErr(viper.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.format", flags.Lookup("log-format")))
	cobra.CheckErr(viper.BindPFlag("load.parallel", flags.Lookup("parallel")))
	cobra.CheckErr(viper.BindPFlag("work_dir", flags.Lookup("work-dir")))
}

func initConfig() {
	// A .env file is optional; real environment variables win over it.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".syslens")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SYSLENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			cobra.CheckErr(fmt.Errorf("read config %s: %w", cfgFile, err))
		}
	}
}
