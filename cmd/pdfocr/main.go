// Command pdfocr starts the PDF OCR viewer: a localhost server that renders
// PDF pages, runs OCR through the configured engines, and serves the viewer
// frontend.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wudi/pdfocr/app"
	"github.com/wudi/pdfocr/config"
	"github.com/wudi/pdfocr/observability"
	"github.com/wudi/pdfocr/ocr"
	"github.com/wudi/pdfocr/ocr/native"
	"github.com/wudi/pdfocr/ocr/neural"
	"github.com/wudi/pdfocr/ocr/tesseract"
	"github.com/wudi/pdfocr/render"
	"github.com/wudi/pdfocr/server"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"

	showVersion = flag.Bool("version", false, "Show version information")
	docPath     = flag.String("open", "", "PDF to open at startup")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("pdfocr %s\n", Version)
		os.Exit(0)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := observability.NewZerolog(log.Logger)

	registry := ocr.NewRegistry()
	registry.Register(ocr.VariantTesseract, tesseract.New())
	neuralEngine := neural.New(cfg.OCR.ModelsDir)
	defer neuralEngine.Close()
	registry.Register(ocr.VariantNeural, neuralEngine)
	registry.Register(ocr.VariantNative, native.New())
	for _, v := range ocr.Variants() {
		if eng, err := registry.Engine(v); err == nil {
			if err := eng.Available(); err != nil {
				log.Warn().Str("engine", v.String()).Err(err).Msg("OCR engine not usable")
			}
		}
	}

	controller := app.New(render.Open, registry, logger,
		app.WithLanguages(cfg.OCR.Languages...),
		app.WithQueueDepth(cfg.OCR.QueueDepth))
	defer controller.Close()

	if _, err := controller.SetEngine(cfg.OCR.Engine); err != nil {
		log.Fatal().Err(err).Str("engine", cfg.OCR.Engine).Msg("Invalid startup engine")
	}
	if *docPath != "" {
		if _, err := controller.OpenDocument(*docPath); err != nil {
			log.Fatal().Err(err).Str("path", *docPath).Msg("Failed to open document")
		}
	}

	srv := server.New(controller, cfg.Server, logger)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Starting pdfocr viewer")
		if err := srv.Listen(cfg.Server.Address); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	if err := srv.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
