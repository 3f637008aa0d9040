package main

import "github.com/kelseyhightower/envconfig"

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	ProjectID      string `envconfig:"PROJECT_ID" required:"true"`
	Collection     string `envconfig:"INSPECT_COLLECTION" default:"messages"`
	// INSPECT_COLOURS highlights edited messages and the header
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
