package logger

import (
	"os"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitlab.com/lfmsh/bank/internal/config"
)

var (
	err    error
	once   sync.Once
	logger *otelzap.Logger
)

type Logger struct {
	*zap.Logger
}

func (l *Logger) init() error {
	if _, debug := os.LookupEnv("BANK_DEBUG"); debug || config.GetConfig().General.Debug {
		zapConfig := zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l.Logger, err = zapConfig.Build()
	} else {
		zapConfig := zap.NewProductionConfig()
		// the CLI shares stdout with tables; keep logs on stderr
		zapConfig.OutputPaths = []string{"stderr"}
		l.Logger, err = zapConfig.Build()
	}

	return err
}

// New takes in a package to initialize the new Logger in.
func New(pkg string) *Logger {
	Log := &Logger{}
	err = Log.init()
	if err != nil {
		panic(err)
	}

	Log.Logger = Log.Logger.With(
		zap.String("package", pkg),
	)

	return Log
}

// OtelZapLogger wraps the package logger so that entries logged with a request
// context are attached to the active span.
func OtelZapLogger(pkg string) otelzap.Logger {
	once.Do(func() {
		l := New(pkg)
		logger = otelzap.New(l.Logger)
	})
	return *logger
}
