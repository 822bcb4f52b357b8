// Package config handles handcontrol configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ayusman/handcontrol/internal/capture"
	"github.com/ayusman/handcontrol/internal/detector"
	"github.com/ayusman/handcontrol/internal/dispatch"
	"github.com/ayusman/handcontrol/internal/gesture"
	"github.com/ayusman/handcontrol/internal/positions"
)

// Deployment variants.
const (
	VariantCompact = "compact"
	VariantHD      = "hd"
)

type Config struct {
	HTTPAddr        string
	DataDir         string
	StaticDir       string
	CameraID        int
	Variant         string
	Smoothing       float64
	ScrollContainer string
	PositionsKey    string
	Draggable       []string
	Transient       []string
	Tray            bool
	HostBridge      bool
	AutoStart       bool
	LogLevel        string
}

func Load() *Config {
	return &Config{
		HTTPAddr:        getEnv("HANDCONTROL_HTTP_ADDR", ":8080"),
		DataDir:         getEnv("HANDCONTROL_DATA_DIR", defaultDataDir()),
		StaticDir:       getEnv("HANDCONTROL_STATIC_DIR", ""),
		CameraID:        getEnvInt("HANDCONTROL_CAMERA", 0),
		Variant:         getEnv("HANDCONTROL_VARIANT", VariantCompact),
		Smoothing:       getEnvFloat("HANDCONTROL_SMOOTHING", gesture.DefaultSmoothingFactor),
		ScrollContainer: getEnv("HANDCONTROL_SCROLL_CONTAINER", dispatch.DefaultScrollContainer),
		PositionsKey:    getEnv("HANDCONTROL_POSITIONS_KEY", positions.DefaultKey),
		Draggable:       getEnvList("HANDCONTROL_DRAGGABLE", []string{"cart", "cart_m"}),
		Transient:       getEnvList("HANDCONTROL_TRANSIENT", []string{"cart"}),
		Tray:            getEnvBool("HANDCONTROL_TRAY", false),
		HostBridge:      getEnvBool("HANDCONTROL_HOST_BRIDGE", false),
		AutoStart:       getEnvBool("HANDCONTROL_AUTOSTART", false),
		LogLevel:        getEnv("HANDCONTROL_LOG_LEVEL", "info"),
	}
}

// DBPath is the SQLite database inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "handcontrol.db")
}

// Profile is the camera resolution and estimator options of a variant.
type Profile struct {
	Name       string
	Resolution capture.Resolution
	Options    detector.Options
}

// Profile resolves the configured variant.
func (c *Config) Profile() (Profile, error) {
	switch strings.ToLower(c.Variant) {
	case VariantCompact, "":
		return Profile{Name: VariantCompact, Resolution: capture.ResolutionCompact, Options: detector.DefaultOptions()}, nil
	case VariantHD:
		return Profile{Name: VariantHD, Resolution: capture.ResolutionHD, Options: detector.HDOptions()}, nil
	}
	return Profile{}, fmt.Errorf("unknown variant %q (want %s or %s)", c.Variant, VariantCompact, VariantHD)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".handcontrol"
	}
	return filepath.Join(home, ".handcontrol")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
