// Package log writes leveled log lines to stderr.
//
// The level is part of the message: log.Printf("[warn] way %d: ...") or
// log.Warnf("way %d: ...", id). Lines without a level are always
// written. Each line starts with the time and the elapsed time since
// the start of the program.
package log

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

type Level string

const (
	LDebug    = Level("debug")
	LProgress = Level("progress")
	LStep     = Level("step")
	LInfo     = Level("info")
	LWarn     = Level("warn")
	LError    = Level("error")
	LFatal    = Level("fatal")
)

// rank orders the levels, unknown levels are never filtered.
var rank = map[Level]int{
	LDebug:    1,
	LProgress: 2,
	LStep:     3,
	LInfo:     4,
	LWarn:     5,
	LError:    6,
	LFatal:    7,
}

// ParseLevel returns the Level for a name like "warn".
func ParseLevel(name string) (Level, error) {
	if _, ok := rank[Level(name)]; !ok {
		return "", fmt.Errorf("unknown log level '%s'", name)
	}
	return Level(name), nil
}

var (
	std    *log.Logger
	filter = &levelWriter{
		start: time.Now(),
		out:   os.Stderr,
		min:   rank[LProgress],
	}
)

func init() {
	std = log.New(filter, "", 0)
}

type levelWriter struct {
	mu    sync.Mutex
	start time.Time
	out   io.Writer
	min   int
}

// lineLevel returns the level of the first [...] in line.
func lineLevel(line []byte) Level {
	open := bytes.IndexByte(line, '[')
	if open < 0 {
		return ""
	}
	end := bytes.IndexByte(line[open:], ']')
	if end < 0 {
		return ""
	}
	return Level(line[open+1 : open+end])
}

// Write gets exactly one line from the log.Logger.
func (w *levelWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r, ok := rank[lineLevel(p)]; ok && r < w.min {
		return len(p), nil
	}

	now := time.Now()
	elapsed := now.Sub(w.start)
	b := bytes.Buffer{}
	fmt.Fprintf(&b, "[%s] %d:%02d:%02d ",
		now.Format(time.RFC3339),
		int(elapsed.Hours()),
		int(elapsed.Minutes())%60,
		int(elapsed.Seconds())%60,
	)
	b.Write(p)
	if _, err := w.out.Write(b.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetMinLevel suppresses all lines below lvl.
func SetMinLevel(lvl Level) {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	filter.min = rank[lvl]
}

// SetOutput redirects the log. Returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	filter.mu.Lock()
	defer filter.mu.Unlock()
	prev := filter.out
	filter.out = w
	return prev
}

func Println(v ...interface{}) {
	std.Println(v...)
}

func Printf(format string, v ...interface{}) {
	std.Printf(format, v...)
}

func logf(lvl Level, format string, v []interface{}) {
	std.Printf("["+string(lvl)+"] "+format, v...)
}

func Debugf(format string, v ...interface{}) { logf(LDebug, format, v) }
func Infof(format string, v ...interface{})  { logf(LInfo, format, v) }
func Warnf(format string, v ...interface{})  { logf(LWarn, format, v) }
func Errorf(format string, v ...interface{}) { logf(LError, format, v) }

func Fatal(v ...interface{}) {
	std.Fatal("[fatal] " + fmt.Sprint(v...))
}

func Fatalf(format string, v ...interface{}) {
	std.Fatalf("[fatal] "+format, v...)
}

// Step logs the start of a step and returns a func that logs the end
// with the duration.
func Step(name string) func() {
	start := time.Now()
	Println("[step] Starting:", name)
	return func() {
		Printf("[step] Finished: %s in %s", name, time.Since(start))
	}
}
