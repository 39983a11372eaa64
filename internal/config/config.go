package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Office   OfficeConfig
	Verify   VerifyConfig
	FaceAPI  FaceAPIConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Web      WebConfig
}

// OfficeConfig describes the geofenced location attendance is allowed from.
type OfficeConfig struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// VerifyConfig carries the verification pipeline thresholds. They are
// plumbed into the pipeline constructor explicitly so tests can vary them
// per case without touching the environment.
type VerifyConfig struct {
	EARThreshold        float64 // eyes count as closed below this eye aspect ratio
	ClosedFramesNeeded  int     // closed frames required before a reopen counts as one blink
	MovementThresholdPx float64 // nose displacement needed for a head turn/nod, downscaled pixels
	MinTrackedPositions int     // nose positions required to judge a head challenge
	FrameScale          float64 // downscale factor applied to liveness frames
	MatchTolerance      float64 // maximum embedding distance for an identity match
	ChallengeTTLSeconds int     // lifetime of an issued challenge token
}

type FaceAPIConfig struct {
	URL string // face extractor sidecar, defaults to http://localhost:8800
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type StorageConfig struct {
	UploadDir string // root directory for enrollment photos and capture images
}

type WebConfig struct {
	AllowedOrigins []string // CORS origin whitelist, localhost is always allowed
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, trimming whitespace
// and dropping empty entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	return &Config{
		Office: OfficeConfig{
			Latitude:  envFloat("OFFICE_LAT", 13.0129),
			Longitude: envFloat("OFFICE_LON", 80.2231),
			RadiusKm:  envFloat("GEOFENCE_RADIUS_KM", 0.5),
		},
		Verify: VerifyConfig{
			EARThreshold:        envFloat("LIVENESS_EAR_THRESHOLD", 0.25),
			ClosedFramesNeeded:  envInt("LIVENESS_CLOSED_FRAMES", 1),
			MovementThresholdPx: envFloat("LIVENESS_MOVEMENT_THRESHOLD", 20),
			MinTrackedPositions: envInt("LIVENESS_MIN_POSITIONS", 5),
			FrameScale:          envFloat("LIVENESS_FRAME_SCALE", 0.5),
			MatchTolerance:      envFloat("FACE_MATCH_TOLERANCE", 0.45),
			ChallengeTTLSeconds: envInt("CHALLENGE_TTL_SECONDS", 120),
		},
		FaceAPI: FaceAPIConfig{
			URL: os.Getenv("FACE_API_URL"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Storage: StorageConfig{
			UploadDir: envString("UPLOAD_DIR", "uploads"),
		},
		Web: WebConfig{
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
	}
}
