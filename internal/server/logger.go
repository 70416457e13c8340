package server

import (
	"os"

	"marketplace/internal/config"

	log "github.com/sirupsen/logrus"
)

// 本番はJSON、それ以外はテキスト
func NewLogger(cfg config.Config) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stdout)
	if cfg.IsProd() {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
