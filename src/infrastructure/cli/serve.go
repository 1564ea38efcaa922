package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-campaign-dispatcher/src/infrastructure/di"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/rest/middlewares"
	"go-campaign-dispatcher/src/infrastructure/rest/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the retention job",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	loggerInstance, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer syncLogger(loggerInstance)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loggerInstance.Info("Starting campaign dispatcher", zap.String("env", cfg.Server.GoEnv))

	appContext, err := di.SetupDependencies(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error("Error initializing application context", zap.Error(err))
		return err
	}
	defer appContext.Close()

	if cfg.Retention.Enabled {
		if err := appContext.CleanupJob.Start(); err != nil {
			return err
		}
	}

	server := setupServer(setupRouter(appContext, loggerInstance, cfg.Server.GoEnv), cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		loggerInstance.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			loggerInstance.Error("Server failed to start", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	loggerInstance.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func setupRouter(appContext *di.ApplicationContext, loggerInstance *logger.Logger, env string) *gin.Engine {
	if env == "development" {
		loggerInstance.SetupGinWithZapLoggerInDevelopment()
	} else {
		loggerInstance.SetupGinWithZapLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	router.Use(middlewares.ErrorHandler())
	router.Use(middlewares.CommonHeaders)
	router.Use(loggerInstance.GinZapLogger())

	routes.ApplicationRouter(router, appContext)
	return router
}

// Campaign requests stay open until every contact has a result, so the write timeout is generous.
func setupServer(router *gin.Engine, port string) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Hour,
		MaxHeaderBytes:    1 << 20,
	}
}
