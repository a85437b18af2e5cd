package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"fringerestore/pkg/aperture"
	"fringerestore/pkg/carrier"
	"fringerestore/pkg/config"
	"fringerestore/pkg/imageio"
	"fringerestore/pkg/restoration"
	"fringerestore/pkg/server"
	"fringerestore/pkg/visualization"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	serve := flag.Bool("serve", false, "Run the HTTP API instead of a one-shot restoration")
	addr := flag.String("addr", "", "Listen address, overrides server.addr")
	debug := flag.Bool("debug", false, "Enable debug logging")

	inputPath := flag.String("input", "", "Interferogram image to restore")
	outputPath := flag.String("output", "", "Write the sparse JSON result here instead of stdout")
	heatmapPath := flag.String("png", "", "Write a heatmap of the restored phase")
	grayPath := flag.String("gray", "", "Write the restored phase as a 16-bit grayscale PNG")
	htmlPath := flag.String("html", "", "Write an HTML scatter preview of the sparse result")
	profile := flag.String("profile", "", "Print a phase profile, e.g. row:32 or col:10")

	lambda := flag.Float64("lambda", 0, "Wavelength in nanometres")
	radius := flag.Int("radius", 0, "Aperture radius in pixels, 0 disables the aperture")
	xAngle := flag.Float64("x-angle", 0, "Tilt angle along X")
	yAngle := flag.Float64("y-angle", 0, "Tilt angle along Y")
	xSize := flag.Float64("x-size", 0, "Image width in millimetres")
	ySize := flag.Float64("y-size", 0, "Image height in millimetres, used only without -x-size")
	stride := flag.Int("stride", 0, "Sampling step of the sparse result, overrides processing.stride")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save intermediary results during processing")
	flag.Parse()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			logrus.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Flags win over the file
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *stride > 0 {
		cfg.Processing.Stride = *stride
	}
	if *saveIntermediary {
		cfg.Output.SaveIntermediaryResults = true
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}

	logger := initLogger(cfg)

	restorer := restoration.NewRestorer(&restoration.Params{
		Stride:                  cfg.Processing.Stride,
		ExclusionRadius:         cfg.Processing.ExclusionRadius,
		SaveIntermediaryResults: cfg.Output.SaveIntermediaryResults,
		IntermediaryDir:         cfg.Output.IntermediaryDir,
		Logger:                  logger,
	})

	if *serve {
		if err := runServer(cfg, restorer, logger); err != nil {
			logger.Fatalf("Server failed: %v", err)
		}
		return
	}

	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	intensity, err := imageio.LoadFile(*inputPath)
	if err != nil {
		logger.Fatalf("Failed to load interferogram: %v", err)
	}

	req := restoration.Request{
		ID:        stem(*inputPath),
		Intensity: intensity,
		Aperture:  aperture.None{},
		Carrier:   carrier.Automatic{},
	}
	if *radius != 0 {
		req.Aperture = aperture.Masked{Radius: *radius}
	}
	size := carrier.Size{Width: *xSize}
	if *xSize == 0 {
		size.Height = *ySize
	}
	angle := carrier.Angle{X: *xAngle, Y: *yAngle}
	if *lambda != 0 && (size.Width != 0 || size.Height != 0) && !angle.IsZero() {
		req.Carrier = carrier.Analytic{Wavelength: *lambda, Size: size, Angle: angle}
	}

	report, err := restorer.Restore(req)
	if err != nil {
		logger.Fatalf("Restoration failed (%s): %v", restoration.KindOf(err), err)
	}

	if err := writeResult(report, *outputPath); err != nil {
		logger.Fatalf("Failed to write result: %v", err)
	}

	viewer := visualization.NewViewer(report.Phase, report.Mask)
	if *heatmapPath != "" {
		title := fmt.Sprintf("Restored phase (%s)", filepath.Base(*inputPath))
		if err := viewer.SaveHeatmap(*heatmapPath, title); err != nil {
			logger.Warnf("Failed to save heatmap: %v", err)
		}
	}
	if *grayPath != "" {
		if err := viewer.SaveImage(*grayPath); err != nil {
			logger.Warnf("Failed to save grayscale image: %v", err)
		}
	}
	if *htmlPath != "" {
		if err := savePreview(report, *htmlPath, filepath.Base(*inputPath)); err != nil {
			logger.Warnf("Failed to save preview: %v", err)
		}
	}
	if *profile != "" {
		if err := printProfile(viewer, *profile); err != nil {
			logger.Warnf("Failed to extract profile: %v", err)
		}
	}

	if *outputPath != "" {
		fmt.Printf("Restoration completed in %.3f seconds\n", report.Elapsed.Seconds())
		fmt.Printf("Carrier: %s  window radius: %d  sign: %+d\n", report.Carrier, report.WindowRadius, report.Sign)
		fmt.Printf("Peaks: [%.4f, %.4f]  mean: %.4f  stddev: %.4f  valid pixels: %d\n",
			report.Result.Peaks[0], report.Result.Peaks[1], report.Stats.Mean, report.Stats.StdDev, report.Stats.ValidPixels)
		fmt.Printf("Sparse result saved to: %s\n", *outputPath)
	}
}

func initLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.JSON || level < logrus.DebugLevel {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	}
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", cfg.Logging.Level)
	}

	return logger
}

func runServer(cfg *config.Config, restorer *restoration.Restorer, logger *logrus.Logger) error {
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.NewServer(restorer, cfg, logger).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("Starting HTTP server")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func writeResult(report *restoration.Report, path string) error {
	out := os.Stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return json.NewEncoder(out).Encode(report.Result)
}

func savePreview(report *restoration.Report, path, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return visualization.RenderChart(f, report.Result, title)
}

// printProfile handles "row:N" and "col:N"
func printProfile(viewer *visualization.Viewer, spec string) error {
	axis, pos, ok := strings.Cut(spec, ":")
	if !ok {
		return fmt.Errorf("invalid profile %q, want axis:position", spec)
	}
	position, err := strconv.Atoi(pos)
	if err != nil {
		return fmt.Errorf("invalid profile position %q: %w", pos, err)
	}

	values, err := viewer.ExtractProfile(axis, position)
	if err != nil {
		return err
	}
	for i, v := range values {
		fmt.Fprintf(os.Stderr, "%d\t%.6f\n", i, v)
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
