// Package elog is a small logging façade modeled on the teacher's
// pkg/elog.Logger interface, trimmed of the progress-bar machinery: every
// ext2p operation completes in-memory and instantaneously, so there is no
// long-running task to report progress on.
package elog

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger is the logging surface the shell and core warn callbacks write
// through.
type Logger interface {
	Debugf(format string, x ...interface{})
	Errorf(format string, x ...interface{})
	Infof(format string, x ...interface{})
	Printf(format string, x ...interface{})
	Warnf(format string, x ...interface{})
	IsInfoEnabled() bool
	IsDebugEnabled() bool
}

// CLI is a terminal-oriented Logger: plain output with optional ANSI
// colorization, gated by DisableColors.
type CLI struct {
	DisableColors bool
	IsDebug       bool
	IsVerbose     bool
}

// Debugf executes logrus.Tracef when IsDebug is set.
func (log *CLI) Debugf(format string, x ...interface{}) {
	if log.IsDebug {
		logrus.Tracef(format, x...)
	}
}

// Errorf executes logrus.Errorf.
func (log *CLI) Errorf(format string, x ...interface{}) {
	logrus.Errorf(format, x...)
}

// Infof executes logrus.Debugf when IsVerbose is set.
func (log *CLI) Infof(format string, x ...interface{}) {
	if log.IsVerbose {
		logrus.Debugf(format, x...)
	}
}

// Printf executes logrus.Printf.
func (log *CLI) Printf(format string, x ...interface{}) {
	logrus.Printf(format, x...)
}

// Warnf executes logrus.Warnf.
func (log *CLI) Warnf(format string, x ...interface{}) {
	logrus.Warnf(format, x...)
}

// IsInfoEnabled reports whether InfoLevel logging is enabled.
func (log *CLI) IsInfoEnabled() bool { return logrus.IsLevelEnabled(logrus.InfoLevel) }

// IsDebugEnabled reports whether DebugLevel logging is enabled.
func (log *CLI) IsDebugEnabled() bool { return logrus.IsLevelEnabled(logrus.DebugLevel) }

// Format implements logrus.Formatter, coloring by level the way the
// teacher's pkg/elog.CLI.Format does.
func (log *CLI) Format(entry *logrus.Entry) ([]byte, error) {
	faint := color.New(color.Faint).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()

	x := entry.Message
	if !log.DisableColors {
		switch entry.Level {
		case logrus.TraceLevel:
			x = fmt.Sprintf("%s\n", faint(x))
		case logrus.DebugLevel:
			x = fmt.Sprintf("%s\n", blue(x))
		case logrus.InfoLevel:
			x = fmt.Sprintf("%s\n", x)
		case logrus.WarnLevel:
			x = fmt.Sprintf("%s\n", yellow(x))
		case logrus.ErrorLevel:
			x = fmt.Sprintf("%s\n", red(x))
		}
	} else {
		x = fmt.Sprintf("%s\n", x)
	}

	return []byte(x), nil
}

// New builds a CLI logger and installs it as logrus's formatter.
func New(disableColors, debug, verbose bool) *CLI {
	log := &CLI{DisableColors: disableColors, IsDebug: debug, IsVerbose: verbose}
	logrus.SetFormatter(log)
	if debug {
		logrus.SetLevel(logrus.TraceLevel)
	}
	return log
}
