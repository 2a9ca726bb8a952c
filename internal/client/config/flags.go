package config

import (
	"flag"
	"os"
	"time"

	"github.com/avoskres/taleweaver/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   AWS region of the user pool (default from Config)
//	-i string   Cognito app client id
//	-b string   base URL of the story backend
//	-t int      request timeout in seconds (default from Config)
//
// The client secret is deliberately not a flag; it would end up in shell
// history. Use the JSON config file for it.
//
// Note: the function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-i", "-b", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.AWSRegion, "r", cfg.AWSRegion, "AWS region of the Cognito user pool")
	fs.StringVar(&cfg.CognitoClientID, "i", cfg.CognitoClientID, "Cognito app client id")
	fs.StringVar(&cfg.StoryAPIBaseURL, "b", cfg.StoryAPIBaseURL, "base URL of the story backend")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
