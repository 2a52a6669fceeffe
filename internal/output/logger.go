/*
PURPOSE:
  Provides the structured logger for the PFR console.
  Wraps logrus for consistent, field-based output.

REQUIREMENTS:
  User-specified:
  - "Sane" CLI output. Not spammy.

  Implementation-discovered:
  - Controller transitions need run_id/seq fields to correlate request and response.
  - Level must be configurable from YAML and flags.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

IMPLEMENTATION RULES:
  - Log to stderr so stdout stays clean for command output.

USAGE:
  output.Logger.WithFields(logrus.Fields{"seq": 1}).Info("Simulation started")
*/

package output

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stderr)
	Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetLogger allows overriding the default logger (e.g. for testing).
func SetLogger(l *logrus.Logger) {
	Logger = l
}

// SetLevel parses and applies a level name such as "debug" or "warn".
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}
