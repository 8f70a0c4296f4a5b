package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/veldtlab/vigil/internal/camera"
	"github.com/veldtlab/vigil/internal/config"
	"github.com/veldtlab/vigil/internal/detector"
	"github.com/veldtlab/vigil/internal/inference"
	"github.com/veldtlab/vigil/internal/logging"
	"github.com/veldtlab/vigil/internal/pipeline"
	"github.com/veldtlab/vigil/internal/ui"
)

func init() {
	// Lock the main goroutine to the main OS thread.
	// This is required on macOS for OpenCV's highgui (window creation).
	runtime.LockOSThread()
}

func main() {
	cfg := parseFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("monitor stopped")
		os.Exit(1)
	}
}

// parseFlags layers command-line flags over the environment config, so
// a flag that is not passed keeps the env (or default) value.
func parseFlags() *config.Config {
	cfg := config.Load()

	flag.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "Camera device index")
	flag.IntVar(&cfg.CameraID, "c", cfg.CameraID, "Camera device index (shorthand)")
	flag.IntVar(&cfg.FrameWidth, "width", cfg.FrameWidth, "Requested capture width")
	flag.IntVar(&cfg.FrameHeight, "height", cfg.FrameHeight, "Requested capture height")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "Landmark backend: onnx or remote")
	flag.StringVar(&cfg.Backend, "b", cfg.Backend, "Landmark backend (shorthand)")
	flag.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "Face mesh ONNX model path")
	flag.StringVar(&cfg.ModelPath, "m", cfg.ModelPath, "Face mesh ONNX model path (shorthand)")
	flag.StringVar(&cfg.DetectModel, "detect", cfg.DetectModel, "Face finder ONNX model path (enables multi-face)")
	flag.StringVar(&cfg.RemoteURL, "url", cfg.RemoteURL, "Landmark service WebSocket URL")
	flag.StringVar(&cfg.HeadStrategy, "strategy", cfg.HeadStrategy, "Head policy: instant or debounced")
	flag.BoolVar(&cfg.GazeGated, "gated", cfg.GazeGated, "Sample gaze only on head-abnormal frames")
	flag.BoolVar(&cfg.AuxSignals, "aux", cfg.AuxSignals, "Compute symmetry and mouth signals")
	flag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run without a preview window")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Vigil - Real-time attentiveness monitor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: vigil [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vigil\n")
		fmt.Fprintf(os.Stderr, "  vigil --backend remote --url ws://127.0.0.1:8765/landmarks\n")
		fmt.Fprintf(os.Stderr, "  vigil --detect models/scrfd.onnx\n")
		fmt.Fprintf(os.Stderr, "  vigil --strategy debounced --aux\n")
		fmt.Fprintf(os.Stderr, "  vigil --headless --log-level debug\n")
	}

	flag.Parse()
	return cfg
}

func run(cfg *config.Config, log *logrus.Logger) error {
	sessionID := uuid.NewString()
	slog := log.WithField("session_id", sessionID)

	slog.WithFields(logrus.Fields{
		"backend":  cfg.Backend,
		"strategy": cfg.HeadStrategy,
		"gated":    cfg.GazeGated,
	}).Info("vigil starting")

	det, cleanup, err := newDetector(cfg, slog)
	if err != nil {
		return err
	}
	defer cleanup()

	pipelineConfig := pipeline.Config{
		Strategy:        pipeline.HeadStrategy(cfg.HeadStrategy),
		YawLimit:        cfg.HeadYawLimit,
		BandMin:         cfg.HeadBandMin,
		BandMax:         cfg.HeadBandMax,
		StabilityFrames: cfg.StabilityFrames,
		GazeWindow:      cfg.GazeWindow,
		GazeThreshold:   cfg.GazeThreshold,
		GateGazeOnHead:  cfg.GazeGated,
		AuxSignals:      cfg.AuxSignals,
		MinFaceScore:    cfg.MinFaceScore,
	}

	p, err := pipeline.New(det, pipelineConfig, slog.WithField("component", "pipeline"))
	if err != nil {
		det.Close()
		return fmt.Errorf("creating pipeline: %w", err)
	}
	defer p.Close()

	cam, err := camera.NewCapture(cfg.CameraID, cfg.FrameWidth, cfg.FrameHeight,
		slog.WithField("component", "camera"))
	if err != nil {
		return fmt.Errorf("opening camera: %w", err)
	}
	defer cam.Close()
	slog.WithField("size", fmt.Sprintf("%dx%d", cam.Width(), cam.Height())).Info("camera opened")

	var window *ui.Window
	if !cfg.Headless {
		window = ui.NewWindow("Vigil", cam.Width(), cam.Height())
		defer window.Close()
	}

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	frame := gocv.NewMat()
	defer frame.Close()

	slog.Info("running, press q to quit")

	var lastHead, lastGaze bool
	for {
		select {
		case <-sigChan:
			slog.Info("signal received, shutting down")
			return nil
		default:
		}

		if !cam.Read(&frame) || frame.Empty() {
			continue
		}

		img, err := frame.ToImage()
		if err != nil {
			slog.WithError(err).Warn("frame conversion failed")
			continue
		}

		res, err := p.Process(img)
		if err != nil {
			slog.WithError(err).Warn("frame dropped")
			continue
		}

		logFrame(slog, res)

		if res.HeadAbnormal != lastHead {
			slog.WithFields(logrus.Fields{
				"abnormal": res.HeadAbnormal,
				"yaw":      fmt.Sprintf("%.1f", res.Angles.Yaw),
			}).Info("head pose signal changed")
			lastHead = res.HeadAbnormal
		}
		if res.GazeAbnormal != lastGaze {
			slog.WithFields(logrus.Fields{
				"abnormal": res.GazeAbnormal,
				"offset":   fmt.Sprintf("%.1f", res.GazeOffset),
			}).Info("gaze signal changed")
			lastGaze = res.GazeAbnormal
		}

		if window != nil {
			ui.DrawOverlay(&frame, res)
			window.Show(&frame)
			// WaitKey must be called to process window events on macOS
			if ui.QuitRequested(window.WaitKey(10)) {
				slog.Info("quitting")
				return nil
			}
		}
	}
}

// newDetector builds the configured landmark backend. The returned
// cleanup tears down whatever environment the backend needed; it runs
// after the pipeline has closed the detector itself.
func newDetector(cfg *config.Config, log *logrus.Entry) (pipeline.Detector, func(), error) {
	noop := func() {}

	switch pipeline.Backend(cfg.Backend) {
	case pipeline.BackendONNX:
		if cfg.ORTLibrary != "" {
			inference.SetLibraryPath(cfg.ORTLibrary)
		}
		if err := inference.Initialize(); err != nil {
			return nil, noop, fmt.Errorf("initializing onnxruntime: %w", err)
		}
		cleanup := func() {
			if err := inference.Shutdown(); err != nil {
				log.WithError(err).Warn("onnxruntime shutdown failed")
			}
		}

		mesh, err := detector.NewFaceMesh(cfg.ModelPath, cfg.MinFaceScore)
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("loading face mesh model: %w", err)
		}
		log.WithField("model", cfg.ModelPath).Info("face mesh model loaded")

		if cfg.DetectModel == "" {
			return mesh, cleanup, nil
		}

		finder, err := detector.NewSCRFD(cfg.DetectModel, cfg.MinFaceScore)
		if err != nil {
			mesh.Close()
			cleanup()
			return nil, noop, fmt.Errorf("loading face finder model: %w", err)
		}
		det, err := detector.NewCascade(finder, mesh)
		if err != nil {
			finder.Close()
			mesh.Close()
			cleanup()
			return nil, noop, err
		}
		log.WithField("model", cfg.DetectModel).Info("face finder model loaded, multi-face enabled")
		return det, cleanup, nil

	case pipeline.BackendRemote:
		det, err := detector.NewRemote(detector.RemoteConfig{URL: cfg.RemoteURL},
			log.WithField("component", "remote"))
		if err != nil {
			return nil, noop, err
		}
		return det, noop, nil

	default:
		return nil, noop, fmt.Errorf("invalid backend: %s (use 'onnx' or 'remote')", cfg.Backend)
	}
}

func logFrame(log *logrus.Entry, res *pipeline.Result) {
	head, gaze := res.Flags()
	fields := logrus.Fields{
		"faces":    res.FaceCount,
		"head":     head,
		"gaze":     gaze,
		"total_ms": res.Timing.Total.Milliseconds(),
	}
	if res.PoseOK {
		fields["yaw"] = fmt.Sprintf("%.1f", res.Angles.Yaw)
		fields["pitch"] = fmt.Sprintf("%.1f", res.Angles.Pitch)
		fields["roll"] = fmt.Sprintf("%.1f", res.Angles.Roll)
	}
	log.WithFields(fields).Debug("frame")
}
