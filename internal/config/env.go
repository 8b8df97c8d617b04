package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ServerEnv struct {
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3100"`
	// APIKey enables X-API-Key checks on the dev server when set.
	APIKey string `envconfig:"SERVER_API_KEY"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".crewdesk/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"crewdesk/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type ClientEnv struct {
	APIURL  string        `envconfig:"API_URL" default:"http://localhost:3100"`
	APIKey  string        `envconfig:"API_KEY"`
	Timeout time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
	CrewID  int           `envconfig:"CREW_ID" default:"1"`
}

type Env struct {
	BaseEnv
	ServerEnv
	StorageEnv
	ClientEnv
}

const namespace = "CREWDESK"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func BaseEnvFromEnv(env *Env) *BaseEnv {
	return &env.BaseEnv
}

func ServerEnvFromEnv(env *Env) *ServerEnv {
	return &env.ServerEnv
}

func StorageEnvFromEnv(env *Env) *StorageEnv {
	return &env.StorageEnv
}

func ClientEnvFromEnv(env *Env) *ClientEnv {
	return &env.ClientEnv
}
