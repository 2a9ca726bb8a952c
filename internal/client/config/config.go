package config

import "time"

// Config holds runtime settings for the TaleWeaver CLI.
//
// Fields:
//   - AWSRegion: region of the Cognito user pool.
//   - CognitoClientID: app client id of the user pool.
//   - CognitoClientSecret: optional app client secret; when set, every
//     identity call carries a SECRET_HASH.
//   - StoryAPIBaseURL: base URL of the story-generation backend.
//   - RequestTimeout: per-request deadline for identity and story calls.
type Config struct {
	AWSRegion           string
	CognitoClientID     string
	CognitoClientSecret string
	StoryAPIBaseURL     string
	RequestTimeout      time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.AWSRegion = "us-east-1"
	c.StoryAPIBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 15 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
