package main

import (
	"flag"
	"os"

	"simex/internal/app"

	"github.com/sirupsen/logrus"
)

// @title SimEx API
// @version 1.0
// @description Simulated currency exchange: rate history, conversions and payment settlement.
// @BasePath /api/v1
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := app.Run(*configPath); err != nil {
		logrus.WithError(err).Error("SimEx stopped")
		os.Exit(1)
	}
}
