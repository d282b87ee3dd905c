package main

import (
	"context"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hls-packager/internal/packager"
	"hls-packager/internal/platform/config"
	"hls-packager/internal/platform/logger"
	"hls-packager/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	outputRoot := config.GetEnv("OUTPUT_ROOT", "public/videos")
	uploadDir := config.GetEnv("UPLOAD_DIR", "uploads")
	baseURL := config.GetEnv("BASE_URL", "http://localhost:"+port)
	ffmpegPath := config.GetEnv("FFMPEG_PATH", "ffmpeg")
	policy := packager.ParseFailurePolicy(config.GetEnv("FAILURE_POLICY", "best-effort"))
	maxEncodes := config.GetEnvInt("MAX_CONCURRENT_ENCODES", 0)
	jobTimeout := config.GetEnvDuration("JOB_TIMEOUT", 0)
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	specs := packager.DefaultRenditionSpecs()
	if ladder := config.GetEnv("RENDITIONS", ""); ladder != "" {
		parsed, err := packager.ParseRenditionSpecs(ladder)
		if err != nil {
			log.Error("invalid RENDITIONS", "error", err)
			os.Exit(1)
		}
		specs = parsed
	}

	engine, err := packager.NewFFmpegEngine(ffmpegPath, log)
	if err != nil {
		log.Error("codec engine unavailable", "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	layout := packager.NewLayout(outputRoot)
	runner := packager.NewJobRunner(engine, jobTimeout, log, met)
	orch := packager.NewOrchestrator(layout, runner, packager.Config{
		Specs:                specs,
		BaseURL:              baseURL,
		Policy:               policy,
		MaxConcurrentEncodes: maxEncodes,
	}, log, met)
	h := packager.NewHandler(orch, uploadDir, log, met)

	// Players resolve segment and playlist types from the extension.
	_ = mime.AddExtensionType(".m3u8", "application/vnd.apple.mpegurl")
	_ = mime.AddExtensionType(".ts", "video/mp2t")

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler().ServeHTTP(w, req)
	})
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/upload", h.Upload)
	r.Handle("/videos/*", http.StripPrefix("/videos/", http.FileServer(http.Dir(outputRoot))))

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"output_root", outputRoot,
		"renditions", len(specs),
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
