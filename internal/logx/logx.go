// Package logx is the thin logging seam the engine writes through,
// so that backtest runs can swap in a no-op sink instead of printing
// to stderr for every tick.
package logx

import (
	"log"
	"os"
)

// Sink is anything that can log engine events. Implementations are
// not required to be safe for concurrent use unless documented.
type Sink interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StdSink logs through the standard library logger.
type StdSink struct {
	l *log.Logger
}

// NewStdSink returns a Sink that writes to os.Stderr with a standard
// timestamp prefix.
func NewStdSink() *StdSink {
	return &StdSink{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *StdSink) Infof(format string, args ...any)  { s.l.Printf("INFO  "+format, args...) }
func (s *StdSink) Warnf(format string, args ...any)  { s.l.Printf("WARN  "+format, args...) }
func (s *StdSink) Errorf(format string, args ...any) { s.l.Printf("ERROR "+format, args...) }

// Nop discards everything logged to it. Useful in tests and
// library callers that don't want stderr noise.
type Nop struct{}

func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}
