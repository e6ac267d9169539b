package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mohitkumar/scriptproc/agent"
	"github.com/mohitkumar/scriptproc/analytics"
	"github.com/mohitkumar/scriptproc/config"
	"github.com/mohitkumar/scriptproc/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type cli struct {
	cfg config.Config
}

func setupFlags(cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()
	flags.String("config-file", "", "Path to config file.")
	flags.String("processor-name", "ScriptProcessor", "name of the processor, used in logs and storage keys")
	flags.String("script-source", "bundled", "where the script comes from: bundled, file or redis")
	flags.String("script", "", "script file path, or script name when the source is redis")
	flags.Duration("script-timeout", 0, "interrupt a script running longer than this, 0 for no limit")
	flags.Duration("script-cache-ttl", 0, "keep compiled scripts for this long, 0 re-parses on every trigger")
	flags.String("source-dir", "resources/source", "directory holding input files and attribute sidecars")
	flags.String("out-dir", "target/out", "directory receiving one sub directory per relationship")
	flags.String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	flags.String("redis-password", "", "redis password")
	flags.Int("redis-pool-size", 0, "redis connection pool size, 0 uses the client default")
	flags.String("namespace", "scriptproc", "namespace used in redis keys")
	flags.Int("http-port", 8080, "http port for rest endpoints")
	flags.Duration("schedule-interval", time.Second, "how often the scheduler triggers the processor")
	flags.Int("concurrent-tasks", 1, "number of triggers allowed to run at the same time")
	flags.Duration("penalty-duration", 30*time.Second, "how long flowfiles of a failed trigger are held back")
	flags.String("sink", "memory", "extra destination of routed flowfiles: memory, dir or redis")
	flags.String("analytics", "NOOP", "routing data collector: NOOP, LOG_FILE_DATA_COLLECTOR or METRICS_DATA_COLLECTOR")
	flags.String("analytics-file", "routing.log", "file used by the log file data collector")
	flags.String("log-level", "info", "log level")
	flags.String("log-format", "console", "log format: console or json")
	return viper.BindPFlags(flags)
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	if len(configFile) != 0 {
		viper.SetConfigFile(configFile)
		if err = viper.ReadInConfig(); err != nil {
			// it's ok if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return err
			}
		}
	}
	// a .env file in the working directory feeds SCRIPTPROC_* variables
	_ = godotenv.Load()
	viper.SetEnvPrefix("SCRIPTPROC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	c.cfg.ProcessorName = viper.GetString("processor-name")
	c.cfg.ScriptConfig.SourceType = config.ScriptSourceType(viper.GetString("script-source"))
	c.cfg.ScriptConfig.Location = viper.GetString("script")
	c.cfg.ScriptConfig.Timeout = viper.GetDuration("script-timeout")
	c.cfg.ScriptConfig.CacheTTL = viper.GetDuration("script-cache-ttl")
	c.cfg.HarnessConfig.SourceDir = viper.GetString("source-dir")
	c.cfg.HarnessConfig.OutDir = viper.GetString("out-dir")
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Password = viper.GetString("redis-password")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.RedisConfig.PoolSize = viper.GetInt("redis-pool-size")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.ScheduleInterval = viper.GetDuration("schedule-interval")
	c.cfg.ConcurrentTasks = viper.GetInt("concurrent-tasks")
	c.cfg.PenaltyDuration = viper.GetDuration("penalty-duration")
	c.cfg.SinkType = config.SinkType(viper.GetString("sink"))
	c.cfg.AnalyticsConfig.CollectorType = analytics.DataCollectorType(viper.GetString("analytics"))
	c.cfg.AnalyticsConfig.FileName = viper.GetString("analytics-file")
	c.cfg.LogConfig.Level = viper.GetString("log-level")
	c.cfg.LogConfig.Format = logger.Format(viper.GetString("log-format"))

	return logger.Init(c.cfg.LogConfig.Level, c.cfg.LogConfig.Format)
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	a, err := agent.New(c.cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	report, err := a.RunHarness(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("routed flowfiles", zap.Int("enqueued", report.Enqueued), zap.Any("routed", report.Routed), zap.String("out", c.cfg.HarnessConfig.OutDir))
	return nil
}

func (c *cli) serve(cmd *cobra.Command, args []string) error {
	a, err := agent.New(c.cfg)
	if err != nil {
		return err
	}
	if err = a.Start(); err != nil {
		_ = a.Shutdown()
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return a.Shutdown()
}

func main() {
	cli := &cli{}
	defer logger.Sync()

	root := &cobra.Command{
		Use:               "scriptproc",
		Short:             "Run a user supplied script against flowfiles and route them to success or failure",
		PersistentPreRunE: cli.setupConfig,
		SilenceUsage:      true,
	}
	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Feed every file of the source directory through the processor once and write the results to the out directory",
		RunE:  cli.run,
	})
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the processor over http and trigger it on a schedule",
		RunE:  cli.serve,
	})

	if err := setupFlags(root); err != nil {
		log.Fatal(err)
	}

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
