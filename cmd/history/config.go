package main

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	// HISTORY_LIMIT bounds the number of records listed, 0 lists everything
	Limit int `envconfig:"HISTORY_LIMIT" default:"0"`
	// HISTORY_COLOURS enables colorized transcripts
	Colours bool `envconfig:"HISTORY_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
