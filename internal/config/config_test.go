package config

import (
	"strings"
	"testing"
)

// clearEnv blanks every monitor key so a test sees only what it sets
// itself. Empty values read as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"VIGIL_CAMERA_ID", "VIGIL_FRAME_WIDTH", "VIGIL_FRAME_HEIGHT",
		"VIGIL_BACKEND", "VIGIL_MODEL_PATH", "VIGIL_DETECT_MODEL",
		"VIGIL_ORT_LIBRARY", "VIGIL_REMOTE_URL",
		"VIGIL_HEAD_STRATEGY", "VIGIL_HEAD_YAW_LIMIT", "VIGIL_HEAD_BAND_MIN",
		"VIGIL_HEAD_BAND_MAX", "VIGIL_STABILITY_FRAMES",
		"VIGIL_GAZE_THRESHOLD", "VIGIL_GAZE_WINDOW", "VIGIL_GAZE_GATED",
		"VIGIL_AUX_SIGNALS", "VIGIL_MIN_FACE_SCORE",
		"VIGIL_LOG_LEVEL", "VIGIL_LOG_FILE", "VIGIL_HEADLESS",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

// TestLoadDefaults verifies every knob's fallback with nothing set.
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.CameraID != 0 || cfg.FrameWidth != 1280 || cfg.FrameHeight != 720 {
		t.Errorf("Expected default camera 0 at 1280x720, got %d at %dx%d",
			cfg.CameraID, cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.Backend != "onnx" {
		t.Errorf("Expected default backend onnx, got %q", cfg.Backend)
	}
	if cfg.ModelPath != "models/face_mesh.onnx" {
		t.Errorf("Expected default model path, got %q", cfg.ModelPath)
	}
	if cfg.DetectModel != "" {
		t.Errorf("Expected no face finder model by default, got %q", cfg.DetectModel)
	}
	if cfg.ORTLibrary != "" {
		t.Errorf("Expected no runtime library override, got %q", cfg.ORTLibrary)
	}
	if cfg.RemoteURL != "ws://127.0.0.1:8765/landmarks" {
		t.Errorf("Expected default remote URL, got %q", cfg.RemoteURL)
	}
	if cfg.HeadStrategy != "instant" || cfg.HeadYawLimit != 10.0 {
		t.Errorf("Expected instant strategy at limit 10, got %q at %v",
			cfg.HeadStrategy, cfg.HeadYawLimit)
	}
	if cfg.HeadBandMin != 85.0 || cfg.HeadBandMax != 95.0 || cfg.StabilityFrames != 8 {
		t.Errorf("Expected band 85..95 over 8 frames, got %v..%v over %d",
			cfg.HeadBandMin, cfg.HeadBandMax, cfg.StabilityFrames)
	}
	if cfg.GazeThreshold != 6.0 || cfg.GazeWindow != 6 {
		t.Errorf("Expected gaze threshold 6 with window 6, got %v with %d",
			cfg.GazeThreshold, cfg.GazeWindow)
	}
	if !cfg.GazeGated {
		t.Errorf("Expected gaze gating on by default")
	}
	if cfg.AuxSignals {
		t.Errorf("Expected auxiliary signals off by default")
	}
	if cfg.MinFaceScore != 0.5 {
		t.Errorf("Expected minimum face score 0.5, got %v", cfg.MinFaceScore)
	}
	if cfg.LogLevel != "info" || cfg.LogFile != "" || cfg.Headless {
		t.Errorf("Expected info logging to stderr with a window, got level=%q file=%q headless=%v",
			cfg.LogLevel, cfg.LogFile, cfg.Headless)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected the default config to validate, got %v", err)
	}
}

// TestLoadFromEnvironment verifies environment keys override defaults
// across all value kinds.
func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIGIL_CAMERA_ID", "2")
	t.Setenv("VIGIL_FRAME_WIDTH", "640")
	t.Setenv("VIGIL_FRAME_HEIGHT", "480")
	t.Setenv("VIGIL_BACKEND", "remote")
	t.Setenv("VIGIL_REMOTE_URL", "ws://10.0.0.5:9000/landmarks")
	t.Setenv("VIGIL_HEAD_STRATEGY", "debounced")
	t.Setenv("VIGIL_HEAD_YAW_LIMIT", "15.5")
	t.Setenv("VIGIL_HEAD_BAND_MIN", "80")
	t.Setenv("VIGIL_HEAD_BAND_MAX", "100")
	t.Setenv("VIGIL_STABILITY_FRAMES", "4")
	t.Setenv("VIGIL_GAZE_THRESHOLD", "4.5")
	t.Setenv("VIGIL_GAZE_WINDOW", "10")
	t.Setenv("VIGIL_GAZE_GATED", "false")
	t.Setenv("VIGIL_AUX_SIGNALS", "true")
	t.Setenv("VIGIL_MIN_FACE_SCORE", "0.7")
	t.Setenv("VIGIL_LOG_LEVEL", "debug")
	t.Setenv("VIGIL_HEADLESS", "1")

	cfg := Load()

	if cfg.CameraID != 2 || cfg.FrameWidth != 640 || cfg.FrameHeight != 480 {
		t.Errorf("Expected camera 2 at 640x480, got %d at %dx%d",
			cfg.CameraID, cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.Backend != "remote" || cfg.RemoteURL != "ws://10.0.0.5:9000/landmarks" {
		t.Errorf("Expected the remote backend with its URL, got %q at %q",
			cfg.Backend, cfg.RemoteURL)
	}
	if cfg.HeadStrategy != "debounced" || cfg.HeadYawLimit != 15.5 {
		t.Errorf("Expected debounced at limit 15.5, got %q at %v",
			cfg.HeadStrategy, cfg.HeadYawLimit)
	}
	if cfg.HeadBandMin != 80 || cfg.HeadBandMax != 100 || cfg.StabilityFrames != 4 {
		t.Errorf("Expected band 80..100 over 4 frames, got %v..%v over %d",
			cfg.HeadBandMin, cfg.HeadBandMax, cfg.StabilityFrames)
	}
	if cfg.GazeThreshold != 4.5 || cfg.GazeWindow != 10 {
		t.Errorf("Expected gaze threshold 4.5 with window 10, got %v with %d",
			cfg.GazeThreshold, cfg.GazeWindow)
	}
	if cfg.GazeGated {
		t.Errorf("Expected gaze gating off")
	}
	if !cfg.AuxSignals {
		t.Errorf("Expected auxiliary signals on")
	}
	if cfg.MinFaceScore != 0.7 {
		t.Errorf("Expected minimum face score 0.7, got %v", cfg.MinFaceScore)
	}
	if cfg.LogLevel != "debug" || !cfg.Headless {
		t.Errorf("Expected debug logging headless, got level=%q headless=%v",
			cfg.LogLevel, cfg.Headless)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected the loaded config to validate, got %v", err)
	}
}

// TestLoadUnparsableFallsBack verifies garbage values read as unset
// instead of failing the load.
func TestLoadUnparsableFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("VIGIL_CAMERA_ID", "two")
	t.Setenv("VIGIL_HEAD_YAW_LIMIT", "wide")
	t.Setenv("VIGIL_GAZE_GATED", "sometimes")

	cfg := Load()

	if cfg.CameraID != 0 {
		t.Errorf("Expected camera to fall back to 0, got %d", cfg.CameraID)
	}
	if cfg.HeadYawLimit != 10.0 {
		t.Errorf("Expected yaw limit to fall back to 10, got %v", cfg.HeadYawLimit)
	}
	if !cfg.GazeGated {
		t.Errorf("Expected gating to fall back to on")
	}
}

// TestValidate verifies the rejection of configurations the pipeline
// could not run with.
func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			CameraID:        0,
			FrameWidth:      1280,
			FrameHeight:     720,
			Backend:         "onnx",
			ModelPath:       "models/face_mesh.onnx",
			RemoteURL:       "ws://127.0.0.1:8765/landmarks",
			HeadStrategy:    "instant",
			HeadYawLimit:    10,
			HeadBandMin:     85,
			HeadBandMax:     95,
			StabilityFrames: 8,
			GazeThreshold:   6,
			GazeWindow:      6,
			GazeGated:       true,
			MinFaceScore:    0.5,
			LogLevel:        "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errPart string
	}{
		{"valid baseline", func(c *Config) {}, false, ""},
		{"unknown backend", func(c *Config) { c.Backend = "cloud" }, true, ""},
		{"unknown strategy", func(c *Config) { c.HeadStrategy = "sticky" }, true, ""},
		{"onnx without model", func(c *Config) { c.ModelPath = "" }, true, ""},
		{"remote without URL", func(c *Config) { c.Backend = "remote"; c.RemoteURL = "" }, true, ""},
		{"remote tolerates empty model path", func(c *Config) { c.Backend = "remote"; c.ModelPath = "" }, false, ""},
		{"inverted band", func(c *Config) { c.HeadStrategy = "debounced"; c.HeadBandMin = 95; c.HeadBandMax = 85 }, true, "below"},
		{"collapsed band", func(c *Config) { c.HeadStrategy = "debounced"; c.HeadBandMin = 90; c.HeadBandMax = 90 }, true, "below"},
		{"instant ignores the band", func(c *Config) { c.HeadBandMin = 95; c.HeadBandMax = 85 }, false, ""},
		{"zero gaze window", func(c *Config) { c.GazeWindow = 0 }, true, ""},
		{"zero yaw limit", func(c *Config) { c.HeadYawLimit = 0 }, true, ""},
		{"negative camera", func(c *Config) { c.CameraID = -3 }, true, ""},
		{"score above one", func(c *Config) { c.MinFaceScore = 1.5 }, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("Expected a validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected the config to validate, got %v", err)
			}
			if err != nil && tt.errPart != "" && !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("Expected error mentioning %q, got %v", tt.errPart, err)
			}
		})
	}
}
