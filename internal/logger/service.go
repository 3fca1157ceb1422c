package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapService struct {
	logger *zap.Logger
	fields map[string]interface{}
}

// NewService creates a new zap-backed Logger instance
func NewService(config *Config) (Logger, error) {
	var zapConfig zap.Config

	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(string(config.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %v", err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if config.Format != "" {
		zapConfig.Encoding = config.Format
	}
	if config.Output != "" {
		zapConfig.OutputPaths = []string{config.Output}
	}

	zapLogger, err := zapConfig.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %v", err)
	}

	return &zapService{
		logger: zapLogger,
		fields: make(map[string]interface{}),
	}, nil
}

func (l *zapService) LogInfo(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, l.convertFields(fields)...)
}

func (l *zapService) LogError(err error, msg string) error {
	if err != nil {
		l.logger.Error(msg, append(l.convertFields(nil), zap.Error(err))...)
	}
	return err
}

func (l *zapService) LogErrorf(err error, format string, args ...interface{}) error {
	if err != nil {
		l.logger.Error(fmt.Sprintf(format, args...), append(l.convertFields(nil), zap.Error(err))...)
	}
	return err
}

func (l *zapService) LogFatal(err error, context string) {
	l.logger.Fatal(context, zap.Error(err))
}

func (l *zapService) LogDebug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, l.convertFields(fields)...)
}

func (l *zapService) LogWarn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, l.convertFields(fields)...)
}

func (l *zapService) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &zapService{
		logger: l.logger,
		fields: merged,
	}
}

// convertFields merges the bound fields with the per-call fields and
// converts them to zap fields.
func (l *zapService) convertFields(fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(l.fields)+len(fields))
	for k, v := range l.fields {
		if _, shadowed := fields[k]; shadowed {
			continue
		}
		zapFields = append(zapFields, zap.Any(k, v))
	}
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}
