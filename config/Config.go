package config

import (
	"time"

	"github.com/mohitkumar/scriptproc/analytics"
	"github.com/mohitkumar/scriptproc/logger"
)

type ScriptSourceType string

const SCRIPT_SOURCE_BUNDLED ScriptSourceType = "bundled"
const SCRIPT_SOURCE_FILE ScriptSourceType = "file"
const SCRIPT_SOURCE_REDIS ScriptSourceType = "redis"

type SinkType string

const SINK_TYPE_MEMORY SinkType = "memory"
const SINK_TYPE_DIR SinkType = "dir"
const SINK_TYPE_REDIS SinkType = "redis"

type Config struct {
	ProcessorName    string
	ScriptConfig     ScriptConfig
	HarnessConfig    HarnessConfig
	RedisConfig      RedisConfig
	HttpPort         int
	ScheduleInterval time.Duration
	ConcurrentTasks  int
	PenaltyDuration  time.Duration
	SinkType         SinkType
	AnalyticsConfig  analytics.DataCollectorConfig
	LogConfig        LogConfig
}

type ScriptConfig struct {
	SourceType ScriptSourceType
	// Path of the script file, or the script name under redis.
	Location string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type HarnessConfig struct {
	SourceDir string
	OutDir    string
}

type RedisConfig struct {
	Addrs     []string
	Namespace string
	Password  string
	PoolSize  int
}

type LogConfig struct {
	Level  string
	Format logger.Format
}
