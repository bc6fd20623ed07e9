// Metersnap - handheld meter-photo capture service
//
// Streams a live camera preview to the browser, freezes a frame on
// trigger, runs the enhancement pipeline, and sends the result to the
// vision endpoint for reading extraction.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/metersnap/metersnap/internal/config"
	"github.com/metersnap/metersnap/internal/log"
	"github.com/metersnap/metersnap/pkg/capture"
	"github.com/metersnap/metersnap/pkg/debug"
	"github.com/metersnap/metersnap/pkg/device"
	"github.com/metersnap/metersnap/pkg/enhance"
	"github.com/metersnap/metersnap/pkg/extract"
	"github.com/metersnap/metersnap/pkg/hub"
	"github.com/metersnap/metersnap/pkg/store"
	"github.com/metersnap/metersnap/pkg/stream"
	"github.com/metersnap/metersnap/pkg/web"
)

func main() {
	config.LoadDotenv()

	configPath := flag.String("config", "", "YAML config file (optional)")
	port := flag.String("port", "", "HTTP listen port (overrides METERSNAP_PORT)")
	profile := flag.String("profile", "", "enhancement profile: compact, balanced, detail")
	debugFlag := flag.Bool("debug", false, "enable verbose debug logging")
	pipeLog := flag.Bool("debug-pipeline", false, "print per-stage pipeline logs")
	flag.Parse()
	debug.Enabled = *debugFlag
	debug.Pipeline = *pipeLog

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *profile != "" {
		cfg.Profile = *profile
	}
	if *debugFlag {
		cfg.LogLevel = "debug"
	}

	log.Init(cfg.LogLevel)

	pipelineCfg := enhance.GetProfile(cfg.Profile)
	if pipelineCfg == nil {
		log.Error("unknown enhancement profile", "profile", cfg.Profile)
		os.Exit(1)
	}
	enhancer, err := enhance.New(*pipelineCfg)
	if err != nil {
		log.Error("pipeline config invalid", "err", err)
		os.Exit(1)
	}

	extractor, err := extract.NewClient(config.VisionEndpointRequired(cfg))
	if err != nil {
		log.Error("vision client setup failed", "err", err)
		os.Exit(1)
	}

	// Persistence is best effort: the capture loop runs without it.
	var readings store.Store
	if db, err := store.OpenSQLite(cfg.DBPath); err != nil {
		log.Warn("readings database unavailable, persistence disabled",
			"path", cfg.DBPath, "err", err)
	} else {
		readings = db
	}

	catalog := device.NewV4L2Catalog()
	previewHub := hub.New("preview")
	statusHub := hub.New("status")

	session := capture.NewSession(capture.Config{
		Catalog:    catalog,
		Streams:    stream.NewManager(catalog, stream.GoCVOpener{}),
		Enhancer:   enhancer,
		Extractor:  extractor,
		Store:      readings,
		PreviewHub: previewHub,
		StatusHub:  statusHub,
	})

	server := web.NewServer(web.Config{
		Port:       cfg.Port,
		Session:    session,
		Catalog:    catalog,
		Store:      readings,
		PreviewHub: previewHub,
		StatusHub:  statusHub,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := session.Start(ctx); err != nil {
		log.Error("session start failed", "err", err)
		os.Exit(1)
	}
	defer session.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	log.Info("metersnap running", "port", cfg.Port, "profile", cfg.Profile)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		log.Error("server stopped", "err", err)
	}

	if err := server.Shutdown(); err != nil {
		log.Warn("shutdown error", "err", err)
	}
}
