// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package options defines the command-line options and flags for the pdf-signing CLI.
// It provides option structures for the root command, signing, and verification.
package options

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minchaudhary/digital-signature/pkg/logging"
)

// EnvPrefix is the prefix used for environment variables that configure the CLI.
// A flag --foo-bar is read from PDF_SIGNING_FOO_BAR when not given.
const EnvPrefix = "PDF_SIGNING"

// DefaultTimeout specifies the default timeout duration for commands.
const DefaultTimeout = 3 * time.Minute

// ValidLogLevels lists the valid log level strings.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "silent"}

// ValidLogFormats lists the valid log format strings.
var ValidLogFormats = []string{"text", "json", "zap"}

var logExts = []string{"log", "txt"}

// Interface is implemented by every option group.
type Interface interface {
	AddFlags(cmd *cobra.Command)
}

// RootOptions defines flags and options for the root CLI command.
// These options are available globally across all subcommands.
type RootOptions struct {
	// OutputFile specifies a file path to redirect output to instead of stdout.
	OutputFile string
	// LogLevel sets the minimum log level (debug, info, warn, error, silent).
	LogLevel string
	// LogFormat sets the log output format (text, json, zap).
	LogFormat string
	// LogFile sends logs to a rotating file instead of stderr.
	LogFile string
	// Timeout sets the maximum duration for command execution.
	Timeout time.Duration
}

var _ Interface = (*RootOptions)(nil)

// AddFlags implements the Interface by adding root-level flags to the cobra command.
func (o *RootOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.OutputFile, "output-file", "",
		"write command output to a file")
	_ = cmd.MarkPersistentFlagFilename("output-file", logExts...)

	cmd.PersistentFlags().StringVar(&o.LogLevel, "log-level", "info",
		"set the minimum log level (debug, info, warn, error, silent)")

	cmd.PersistentFlags().StringVar(&o.LogFormat, "log-format", "text",
		"set the log output format (text, json, zap)")

	cmd.PersistentFlags().StringVar(&o.LogFile, "log-file", "",
		"write logs to a rotating file")
	_ = cmd.MarkPersistentFlagFilename("log-file", logExts...)

	cmd.PersistentFlags().DurationVarP(&o.Timeout, "timeout", "t", DefaultTimeout,
		"timeout for commands")
}

// Validate checks the log settings and timeout.
func (o *RootOptions) Validate() error {
	if _, err := logging.ParseLogFormat(o.LogFormat); err != nil {
		return err
	}
	level := strings.ToLower(strings.TrimSpace(o.LogLevel))
	valid := false
	for _, l := range ValidLogLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown log level %q (valid: %s)", o.LogLevel, strings.Join(ValidLogLevels, ", "))
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	return nil
}

// GetLogLevel returns the effective log level based on the options.
func (o *RootOptions) GetLogLevel() logging.LogLevel {
	return logging.ParseLogLevel(o.LogLevel)
}

// GetLogFormat returns the log format based on the options.
func (o *RootOptions) GetLogFormat() logging.LogFormat {
	format, _ := logging.ParseLogFormat(o.LogFormat)
	return format
}

// NewLogger creates a new logger writing to w, or to the log file if set.
func (o *RootOptions) NewLogger(w io.Writer) logging.Logger {
	opts := logging.LoggerOptions{
		Level:  o.GetLogLevel(),
		Format: o.GetLogFormat(),
		Output: w,
	}
	if o.LogFile != "" {
		opts.File = &logging.FileOptions{Path: o.LogFile, MaxBackups: 3}
	}
	return logging.New(opts)
}

// BindEnv fills every flag not given on the command line from its
// PDF_SIGNING_* environment variable.
func BindEnv(fs *pflag.FlagSet) error {
	var errs []string
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		v, ok := os.LookupEnv(EnvName(f.Name))
		if !ok {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", EnvName(f.Name), err))
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// EnvName returns the environment variable bound to flag name.
func EnvName(flag string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}
