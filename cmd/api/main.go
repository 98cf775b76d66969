package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"vitals-app/internal/analytics"
	"vitals-app/internal/config"
	"vitals-app/internal/domain"
	"vitals-app/internal/hub"
	"vitals-app/internal/repository"
	"vitals-app/internal/router"
	"vitals-app/internal/util"
)

func LoggerInitialize(cfg *config.Config) (*util.VitalsLogger, error) {

	logger := &util.VitalsLogger{}

	ConstructAndCreateLogFolder(cfg.Log)

	if err := logger.Init(cfg.Log.File, false, !cfg.IsProduction()); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		return nil, err
	}

	logger.LogEvent(util.LOG_LEVEL_INFO, "Service started", cfg.App.Name, cfg.App.Env)

	currentTime := time.Now().Format(time.RFC3339)

	fmt.Fprintf(os.Stderr, "\n%s: %s started \n", currentTime, cfg.App.Name)

	return logger, nil
}

func main() {

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := LoggerInitialize(cfg)
	if err != nil {
		fmt.Println("Error while initializing the logger..", err)
		return
	}
	defer logger.DeInit()

	util.CheckAndCreateLogFolder(filepath.Dir(cfg.Database.Path))

	var reportStore domain.ReportStore = repository.NewSQLiteStore(cfg.Database.Path)
	if err := reportStore.Init(); err != nil {
		logger.LogEvent(util.LOG_LEVEL_ERROR, "Failed to initialize report store:", err)
		return
	}
	defer reportStore.Close()

	svc := router.Services{
		Store:     reportStore,
		Logger:    logger,
		Analytics: analytics.NewPrometheus(),
		Hub:       hub.New(),
	}

	if err := router.Run(cfg, svc); err != nil {
		logger.LogEvent(util.LOG_LEVEL_ERROR, "Server stopped with error:", err)
	}
}

func ConstructAndCreateLogFolder(cfg config.LogConfig) {
	util.SetLoggerPath(cfg.Folder)
	util.CheckAndCreateLogFolder(cfg.Folder)
	util.SetCommonLoggerAttributes(util.ParseLogLevel(cfg.Level))
}
