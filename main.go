package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"weexgateway/src/database"
	"weexgateway/src/logging"
	"weexgateway/src/server"
)

var (
	APP_NAME = os.Getenv("APP_NAME")
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.WithError(err).Warn("Failed to load .env")
	}
	logging.Setup(logging.GetConfig())
	defer handlePanic()

	// Initialize main (read/write) database; no-op unless ENABLE_DB
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	h, err := server.BuildProxyHandler()
	if err != nil {
		logger.WithError(err).Fatal("Failed to build proxy")
	}

	server.StartServer(server.GetConfig().Port, h)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
		//nolint
		time.Sleep(time.Second * 5)
	}
}
