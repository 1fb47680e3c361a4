package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const DefaultEnvFile = ".env"

type Config struct {
	DataDir         string
	StartLog        string
	EndLog          string
	Roster          string
	HTTPPort        int
	LogLevel        string
	Subscription    string
	PubsubTopic     string
	GoogleProjectID string
	CredentialsFile string
}

// Load reads envFile (when present) into the environment and builds the
// config from it. Variables already set in the environment win over the file.
func Load(envFile string) *Config {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("envFile", envFile).Msg("env file not found; using process environment")
		} else {
			log.Warn().Err(err).Str("envFile", envFile).Msg("failed to load env file")
		}
	}

	dataDir := strings.TrimSpace(getEnv("REPORT_DATA_DIR", "data"))
	cfg := &Config{
		DataDir:         dataDir,
		HTTPPort:        getEnvInt("REPORT_HTTP_PORT", 8080),
		LogLevel:        strings.TrimSpace(getEnv("REPORT_LOG_LEVEL", "info")),
		Subscription:    strings.TrimSpace(getEnv("REPORT_REQUEST_SUBSCRIPTION", "")),
		PubsubTopic:     strings.TrimSpace(getEnv("REPORT_RESULT_TOPIC", "")),
		CredentialsFile: strings.TrimSpace(firstNonEmpty(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), os.Getenv("REPORT_GSA_CREDENTIALS"))),
	}
	cfg.SetDataDir(dataDir)

	if cfg.Subscription != "" || cfg.PubsubTopic != "" {
		cfg.GoogleProjectID = getGoogleProjectID(cfg.CredentialsFile, strings.TrimSpace(getEnv("REPORT_PUBSUB_PROJECT_ID", "")))
		if cfg.GoogleProjectID == "" {
			log.Warn().Msg("Google project ID not resolved; set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_PROJECT_ID or REPORT_PUBSUB_PROJECT_ID")
		}
	}
	if cfg.Subscription != "" && cfg.PubsubTopic == "" {
		log.Warn().Msg("Pub/Sub result topic not set; set REPORT_RESULT_TOPIC")
	}
	if cfg.PubsubTopic != "" && cfg.Subscription == "" {
		log.Warn().Msg("Pub/Sub request subscription not set; set REPORT_REQUEST_SUBSCRIPTION")
	}
	return cfg
}

// SetDataDir points the data files at dir unless a file path was set
// explicitly through REPORT_START_LOG, REPORT_END_LOG or REPORT_ROSTER.
func (c *Config) SetDataDir(dir string) {
	c.DataDir = dir
	c.StartLog = strings.TrimSpace(getEnv("REPORT_START_LOG", filepath.Join(dir, "start.log")))
	c.EndLog = strings.TrimSpace(getEnv("REPORT_END_LOG", filepath.Join(dir, "end.log")))
	c.Roster = strings.TrimSpace(getEnv("REPORT_ROSTER", filepath.Join(dir, "abbreviations.txt")))
}

func (c *Config) HTTPAddr() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(c.HTTPPort))
}

// AsyncEnabled reports whether queue-driven reporting has what it needs.
func (c *Config) AsyncEnabled() bool {
	return c.Subscription != "" && c.PubsubTopic != "" && c.GoogleProjectID != ""
}

// DataFiles returns the start log, end log and roster paths.
func (c *Config) DataFiles() []string {
	return []string{c.StartLog, c.EndLog, c.Roster}
}

// Redacted returns a view safe for logging
func (c *Config) Redacted() map[string]any {
	return map[string]any{
		"dataDir":             c.DataDir,
		"startLog":            c.StartLog,
		"endLog":              c.EndLog,
		"roster":              c.Roster,
		"httpPort":            c.HTTPPort,
		"logLevel":            c.LogLevel,
		"projectID":           c.GoogleProjectID,
		"requestSubscription": c.Subscription,
		"resultTopic":         c.PubsubTopic,
		"credentialsProvided": c.CredentialsFile != "",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		iv, err := strconv.Atoi(v)
		if err == nil {
			return iv
		}
		fmt.Printf("invalid int for %s: %s\n", key, v)
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func projectIDFromCredentials(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	var x struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(b, &x); err != nil {
		return "", nil
	}
	return x.ProjectID, nil
}

func getGoogleProjectID(credsFile string, explicit string) string {
	// 1) Prefer GOOGLE_APPLICATION_CREDENTIALS if set
	if p := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); p != "" {
		log.Info().Str("credsFile", p).Msg("GOOGLE_APPLICATION_CREDENTIALS is set; extracting project_id from credentials file")
		if pid, err := projectIDFromCredentials(p); err == nil && pid != "" {
			return strings.TrimSpace(pid)
		}
		log.Warn().Str("credsFile", p).Msg("project_id not found in credentials file or unreadable")
	}

	// 2) Explicit override
	if explicit := strings.TrimSpace(explicit); explicit != "" {
		log.Info().Str("projectID", explicit).Msg("using REPORT_PUBSUB_PROJECT_ID for Google project")
		return explicit
	}

	// 3) External override
	if v := strings.TrimSpace(os.Getenv("GOOGLE_PROJECT_ID")); v != "" {
		log.Info().Str("projectID", v).Msg("using GOOGLE_PROJECT_ID from environment")
		return v
	}

	// 4) Common Google envs
	if v := firstNonEmpty(os.Getenv("GOOGLE_CLOUD_PROJECT"), os.Getenv("GCLOUD_PROJECT"), os.Getenv("GCP_PROJECT")); strings.TrimSpace(v) != "" {
		v = strings.TrimSpace(v)
		log.Info().Str("projectID", v).Msg("using Google project from common environment variables")
		return v
	}

	// 5) Fallback to provided credentials file path (REPORT_GSA_CREDENTIALS)
	if p := strings.TrimSpace(credsFile); p != "" {
		if pid, err := projectIDFromCredentials(p); err == nil && pid != "" {
			log.Info().Str("credsFile", p).Msg("using project_id from provided credentials file")
			return strings.TrimSpace(pid)
		}
	}
	return ""
}
