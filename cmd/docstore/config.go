package main

import "time"

type Config struct {
	BadgerFilepath     string        `env:"BADGER_FILEPATH,required=true"`
	ProjectID          string        `env:"PROJECT_ID,required=true"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO"`
	Host               string        `env:"HOST,default=localhost"`
	Port               int           `env:"PORT,default=8080"`
	HTTPPort           int           `env:"HTTP_PORT,default=8081"`
	NatsURL            string        `env:"NATS_URL"`
	ListenerBufferSize int           `env:"LISTENER_BUFFER_SIZE,default=256"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=2s"`
}
