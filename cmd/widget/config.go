package main

import "time"

type Config struct {
	ProjectID       string        `env:"PROJECT_ID,required=true"`
	StoreAddr       string        `env:"STORE_ADDR,default=localhost:8080"`
	NatsURL         string        `env:"NATS_URL"`
	EmbeddedDB      string        `env:"EMBEDDED_DB"`
	Nickname        string        `env:"NICKNAME"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	LogFile         string        `env:"LOG_FILE,default=widget.log"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=2s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=0s"`
	DrainTimeout    time.Duration `env:"DRAIN_TIMEOUT,default=2s"`
	FailureBuffer   int           `env:"FAILURE_BUFFER_SIZE,default=16"`
	FeedBufferSize  int           `env:"FEED_BUFFER_SIZE,default=256"`
}
