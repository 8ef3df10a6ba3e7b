package main

import "time"

type Config struct {
	Host           string        `env:"HOST,default=localhost"`
	Port           int           `env:"PORT,default=8080"`
	BadgerFilepath string        `env:"BADGER_FILEPATH,default=./data/relay"`
	HistoryLimit   int           `env:"HISTORY_LIMIT,default=500"`
	SendBufferSize int           `env:"SEND_BUFFER_SIZE,default=256"`
	JWTSecret      string        `env:"JWT_SECRET,required=true"`
	TokenTTL       time.Duration `env:"AUTH_TOKEN_DURATION,default=12h"`
	MetricInterval time.Duration `env:"METRIC_INTERVAL,default=30s"`
	FrontendDir    string        `env:"FRONTEND_DIR"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
}
