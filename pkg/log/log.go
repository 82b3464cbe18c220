package log

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// concurrency-safe counter
var ctr = newCounter()

var (
	loggerLock sync.RWMutex
	logger     = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// InitLogging configures the global logger from the viper keys log-level, log-format and
// disable-log-color. When showLogLevelSetMessage is true, the resulting level is logged.
func InitLogging(showLogLevelSetMessage bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var l zerolog.Logger
	if strings.EqualFold(viper.GetString("log-format"), "json") {
		l = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
			NoColor:    viper.GetBool("disable-log-color"),
		}).With().Timestamp().Logger()
	}

	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString("log-level")))
	if err != nil || viper.GetString("log-level") == "" {
		level = zerolog.InfoLevel
	}
	l = l.Level(level)

	SetLogger(&l)

	if showLogLevelSetMessage {
		Infof("Log level set to %s", level)
	}
}

// GetLogger returns the global logger.
func GetLogger() *zerolog.Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	return &logger
}

// SetLogger replaces the global logger.
func SetLogger(l *zerolog.Logger) {
	if l == nil {
		return
	}
	loggerLock.Lock()
	logger = *l
	loggerLock.Unlock()
}

func Errorf(format string, a ...interface{}) {
	GetLogger().Error().Msgf(format, a...)
}

func DedupedErrorf(logTypeLimit int, format string, a ...interface{}) {
	timesLogged := ctr.increment(format)

	if timesLogged < logTypeLimit {
		Errorf(format, a...)
	} else if timesLogged == logTypeLimit {
		Errorf(format, a...)
		Infof("%s logged %d times: suppressing future logs", format, logTypeLimit)
	}
}

func Warnf(format string, a ...interface{}) {
	GetLogger().Warn().Msgf(format, a...)
}

func DedupedWarningf(logTypeLimit int, format string, a ...interface{}) {
	timesLogged := ctr.increment(format)

	if timesLogged < logTypeLimit {
		Warnf(format, a...)
	} else if timesLogged == logTypeLimit {
		Warnf(format, a...)
		Infof("%s logged %d times: suppressing future logs", format, logTypeLimit)
	}
}

func Infof(format string, a ...interface{}) {
	GetLogger().Info().Msgf(format, a...)
}

func DedupedInfof(logTypeLimit int, format string, a ...interface{}) {
	timesLogged := ctr.increment(format)

	if timesLogged < logTypeLimit {
		Infof(format, a...)
	} else if timesLogged == logTypeLimit {
		Infof(format, a...)
		Infof("%s logged %d times: suppressing future logs", format, logTypeLimit)
	}
}

func Profilef(format string, a ...interface{}) {
	GetLogger().Info().Str("profiler", "true").Msgf(format, a...)
}

func Debugf(format string, a ...interface{}) {
	GetLogger().Debug().Msgf(format, a...)
}

func Tracef(format string, a ...interface{}) {
	GetLogger().Trace().Msgf(format, a...)
}

func Fatalf(format string, a ...interface{}) {
	GetLogger().Fatal().Msgf(format, a...)
}

// Profile logs the time elapsed since start.
func Profile(start time.Time, name string) {
	elapsed := time.Since(start)
	Profilef("%s: %s", elapsed, name)
}

func ProfileWithThreshold(start time.Time, threshold time.Duration, name string) {
	elapsed := time.Since(start)
	if elapsed > threshold {
		Profilef("%s: %s", elapsed, name)
	}
}
