package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avoskres/taleweaver/internal/flagx"
	"github.com/avoskres/taleweaver/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "15s" or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	AWSRegion           string         `json:"aws_region"`
	CognitoClientID     string         `json:"cognito_client_id"`
	CognitoClientSecret string         `json:"cognito_client_secret"`
	StoryAPIBaseURL     string         `json:"story_api_base_url"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c/-config flags via flagx.JsonConfigFlags();
// when absent, no JSON is loaded. Read or unmarshal errors panic (the caller
// cannot run without the config it was pointed at). Empty JSON fields do not
// wipe defaults.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.AWSRegion != "" {
		cfg.AWSRegion = jc.AWSRegion
	}
	if jc.CognitoClientID != "" {
		cfg.CognitoClientID = jc.CognitoClientID
	}
	if jc.CognitoClientSecret != "" {
		cfg.CognitoClientSecret = jc.CognitoClientSecret
	}
	if jc.StoryAPIBaseURL != "" {
		cfg.StoryAPIBaseURL = jc.StoryAPIBaseURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}
