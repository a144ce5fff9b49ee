package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JonMunkholm/materials/internal/config"
	"github.com/JonMunkholm/materials/internal/core"
	"github.com/JonMunkholm/materials/internal/logging"
	"github.com/JonMunkholm/materials/internal/store/postgres"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "materialctl",
	Short: "Import, export and seed materials",
	Long: `materialctl runs the materials import pipeline from the shell.

Settings come from flags, then materialctl.yaml, then the same environment
variables the server reads (DATABASE_URL, IMPORT_FIELDS, EXPORT_FIELDS, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = loadConfig()
		// stdout is for results and the progress bar.
		slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
		return nil
	},
}

// Execute runs the root command. Ctrl-C cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

// errorText adds the support code and suggested action to known errors.
func errorText(err error) string {
	if core.IsUserFacing(err) {
		return fmt.Sprintf("%v\n%s", err, core.FormatUserError(err))
	}
	return err.Error()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./materialctl.yaml)")
	flags.String("database-url", "", "PostgreSQL connection string")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("database.url", flags.Lookup("database-url"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))

	setDefaults(config.Defaults())
}

// setDefaults seeds viper with the server defaults so both tools agree.
func setDefaults(d *config.Config) {
	viper.SetDefault("database.max_conns", d.Database.MaxConns)
	viper.SetDefault("database.min_conns", d.Database.MinConns)
	viper.SetDefault("import.fields", strings.Join(d.Import.Fields, ","))
	viper.SetDefault("import.row_concurrency", d.Import.RowConcurrency)
	viper.SetDefault("export.fields", strings.Join(d.Export.Fields, ","))
	viper.SetDefault("export.placeholder", d.Export.Placeholder)
	viper.SetDefault("export.time_format", d.Export.TimeFormat)
	viper.SetDefault("log.level", d.Logging.Level)
	viper.SetDefault("log.format", d.Logging.Format)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if ex, err := os.Executable(); err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("materialctl")
		viper.SetConfigType("yaml")
	}

	// import.row_concurrency <- IMPORT_ROW_CONCURRENCY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig builds a server-shaped Config from viper.
func loadConfig() *config.Config {
	c := config.Defaults()
	c.Database.URL = viper.GetString("database.url")
	c.Database.MaxConns = viper.GetInt("database.max_conns")
	c.Database.MinConns = viper.GetInt("database.min_conns")
	c.Import.Fields = stringList("import.fields")
	c.Import.RowConcurrency = viper.GetInt("import.row_concurrency")
	c.Export.Fields = stringList("export.fields")
	c.Export.Placeholder = viper.GetString("export.placeholder")
	c.Export.TimeFormat = viper.GetString("export.time_format")
	c.Logging.Level = viper.GetString("log.level")
	c.Logging.Format = viper.GetString("log.format")
	return c
}

// stringList accepts either a YAML list or a comma-separated string.
func stringList(key string) []string {
	if s, ok := viper.Get(key).(string); ok {
		return config.SplitList(s)
	}
	return viper.GetStringSlice(key)
}

// openStore connects to PostgreSQL using the loaded config.
func openStore(ctx context.Context) (*postgres.Store, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, fmt.Errorf("%w (use --database-url, materialctl.yaml or DATABASE_URL)", err)
	}
	return postgres.Open(ctx, cfg.Database)
}
