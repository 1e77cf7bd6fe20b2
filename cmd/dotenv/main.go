// Command dotenv inspects .env files the way the dotenv package loads them.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.WithError(err).Error("dotenv failed")
		os.Exit(1)
	}
}
