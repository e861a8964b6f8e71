// Package zap mirrors the parts of go.uber.org/zap used by the analyzer testdata.
package zap

type Logger struct{}

func NewNop() *Logger { return &Logger{} }

func (l *Logger) Sugar() *SugaredLogger { return &SugaredLogger{} }

func (l *Logger) Info(msg string) {}

func (l *Logger) Fatal(msg string) {}

func (l *Logger) Panic(msg string) {}

func (l *Logger) Sync() error { return nil }

type SugaredLogger struct{}

func (s *SugaredLogger) Desugar() *Logger { return &Logger{} }

func (s *SugaredLogger) Infow(msg string, keysAndValues ...interface{}) {}

func (s *SugaredLogger) Fatalw(msg string, keysAndValues ...interface{}) {}

func (s *SugaredLogger) Panicf(template string, args ...interface{}) {}

func (s *SugaredLogger) Sync() error { return nil }
