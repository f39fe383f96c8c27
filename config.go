package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string        `yaml:"git_commit" envconfig:"LIBAPP_GIT_COMMIT"`
	GitTag                  string        `yaml:"git_tag" envconfig:"LIBAPP_GIT_TAG"`
	BuildTime               string        `yaml:"build_time" envconfig:"LIBAPP_BUILD_TIME"`
	IsProduction            bool          `yaml:"is_production" envconfig:"LIBAPP_IS_PRODUCTION"`
	LogLevel                zapcore.Level `yaml:"log_level" envconfig:"LIBAPP_LOG_LEVEL"`
	LogFolder               string        `yaml:"log_folder" envconfig:"LIBAPP_LOG_FOLDER"`
	LogMaxSize              int           `yaml:"log_max_size" envconfig:"LIBAPP_LOG_MAX_SIZE"` // megabytes before rotation
	OpsEndpointsEnable      bool          `yaml:"ops_endpoints_enable" envconfig:"LIBAPP_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool          `yaml:"profiler_endpoints_enable" envconfig:"LIBAPP_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig  `yaml:"server"`
	Redis                   RedisConfig   `yaml:"redis"`
	BoltDB                  BoltDBConfig  `yaml:"boltdb"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"LIBAPP_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"LIBAPP_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"LIBAPP_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"LIBAPP_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"LIBAPP_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"LIBAPP_SERVER_SHUTDOWN_TIMEOUT"`
	RateLimit       float64       `yaml:"rate_limit" envconfig:"LIBAPP_SERVER_RATE_LIMIT"` // requests per second per client ip
	RateBurst       int           `yaml:"rate_burst" envconfig:"LIBAPP_SERVER_RATE_BURST"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"LIBAPP_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"LIBAPP_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"LIBAPP_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"LIBAPP_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"LIBAPP_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"LIBAPP_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"LIBAPP_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"LIBAPP_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"LIBAPP_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"LIBAPP_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"LIBAPP_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"LIBAPP_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"LIBAPP_BOLTDB_BUCKET_NAME"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
		return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
	}

	if config.Server.RateLimit <= 0 {
		config.Server.RateLimit = 2
	}

	if config.Server.RateBurst <= 0 {
		config.Server.RateBurst = 4
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load("./config.env")
	if err != nil {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `LIBAPP`.
	err = LoadConfigEnvs("LIBAPP", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
