package main

import (
	"fmt"
	"os"
	"time"

	"grid-constraints/internal/api/handlers"
	"grid-constraints/internal/api/middleware"
	"grid-constraints/internal/data"
	"grid-constraints/internal/powermodels"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	var (
		log *zap.Logger
		err error
	)
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	files, err := handlers.NewFiles()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	log.Info("data directory", zap.String("dir", files.DataDir))

	ttl := time.Hour
	if v := os.Getenv("REPORT_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			ttl = parsed
		}
	}
	store := data.NewReportStore(ttl)
	defer store.Close()

	var bands powermodels.BandProvider
	if u := os.Getenv("FLEX_BAND_SERVICE_URL"); u != "" {
		bands = data.NewFlexBandClient(os.Getenv("FLEX_BAND_API_KEY"), u, log)
		log.Info("using flexibility band service", zap.String("url", u))
	}

	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler(log))

	checkHandler := handlers.NewCheckHandler(files, store, log)
	exportHandler := handlers.NewExportHandler(files, bands, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "reports": store.Len()})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/checks", checkHandler.RunChecks)
		api.GET("/checks/:id", checkHandler.GetReport)
		api.POST("/relative-load", checkHandler.RelativeLoad)
		api.POST("/export", exportHandler.Export)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Info("starting API server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
