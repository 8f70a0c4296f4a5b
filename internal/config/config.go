package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration of the monitor. Every knob
// has an environment key with prefix VIGIL_; the CLI layers its flags
// on top of what Load returns.
type Config struct {
	CameraID    int `validate:"gte=0"`
	FrameWidth  int `validate:"gt=0"`
	FrameHeight int `validate:"gt=0"`

	Backend     string `validate:"oneof=onnx remote"`
	ModelPath   string `validate:"required_if=Backend onnx"`
	DetectModel string
	ORTLibrary  string
	RemoteURL   string `validate:"required_if=Backend remote"`

	HeadStrategy    string  `validate:"oneof=instant debounced"`
	HeadYawLimit    float64 `validate:"gt=0"`
	HeadBandMin     float64
	HeadBandMax     float64
	StabilityFrames int `validate:"gt=0"`

	GazeThreshold float64 `validate:"gt=0"`
	GazeWindow    int     `validate:"gt=0"`
	GazeGated     bool
	AuxSignals    bool

	MinFaceScore float32 `validate:"gte=0,lte=1"`

	LogLevel string
	LogFile  string
	Headless bool
}

// Load reads configuration from the environment, honoring a .env file
// in the working directory when one exists. Unset or unparsable keys
// fall back to their defaults; call Validate before using the result.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		CameraID:    getEnvAsInt("VIGIL_CAMERA_ID", 0),
		FrameWidth:  getEnvAsInt("VIGIL_FRAME_WIDTH", 1280),
		FrameHeight: getEnvAsInt("VIGIL_FRAME_HEIGHT", 720),

		Backend:     getEnv("VIGIL_BACKEND", "onnx"),
		ModelPath:   getEnv("VIGIL_MODEL_PATH", "models/face_mesh.onnx"),
		DetectModel: getEnv("VIGIL_DETECT_MODEL", ""),
		ORTLibrary:  getEnv("VIGIL_ORT_LIBRARY", ""),
		RemoteURL:   getEnv("VIGIL_REMOTE_URL", "ws://127.0.0.1:8765/landmarks"),

		HeadStrategy:    getEnv("VIGIL_HEAD_STRATEGY", "instant"),
		HeadYawLimit:    getEnvAsFloat("VIGIL_HEAD_YAW_LIMIT", 10.0),
		HeadBandMin:     getEnvAsFloat("VIGIL_HEAD_BAND_MIN", 85.0),
		HeadBandMax:     getEnvAsFloat("VIGIL_HEAD_BAND_MAX", 95.0),
		StabilityFrames: getEnvAsInt("VIGIL_STABILITY_FRAMES", 8),

		GazeThreshold: getEnvAsFloat("VIGIL_GAZE_THRESHOLD", 6.0),
		GazeWindow:    getEnvAsInt("VIGIL_GAZE_WINDOW", 6),
		GazeGated:     getEnvAsBool("VIGIL_GAZE_GATED", true),
		AuxSignals:    getEnvAsBool("VIGIL_AUX_SIGNALS", false),

		MinFaceScore: float32(getEnvAsFloat("VIGIL_MIN_FACE_SCORE", 0.5)),

		LogLevel: getEnv("VIGIL_LOG_LEVEL", "info"),
		LogFile:  getEnv("VIGIL_LOG_FILE", ""),
		Headless: getEnvAsBool("VIGIL_HEADLESS", false),
	}
}

// Validate runs struct-tag validation plus the cross-field checks the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.HeadStrategy == "debounced" && c.HeadBandMin >= c.HeadBandMax {
		return fmt.Errorf("config: head band min %.1f must be below max %.1f",
			c.HeadBandMin, c.HeadBandMax)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
