package log

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, lvl Level) *bytes.Buffer {
	buf := &bytes.Buffer{}
	prev := SetOutput(buf)
	SetMinLevel(lvl)
	t.Cleanup(func() {
		SetOutput(prev)
		SetMinLevel(LProgress)
	})
	return buf
}

func TestLevelFilter(t *testing.T) {
	buf := capture(t, LWarn)

	Printf("[debug] hidden %d", 1)
	Infof("hidden %d", 2)
	Warnf("shown %d", 3)
	Println("[error] shown", 4)
	Println("no level")
	Println("[unknown] level")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[warn] shown 3")
	assert.Contains(t, out, "[error] shown 4")
	assert.Contains(t, out, "no level")
	assert.Contains(t, out, "[unknown] level")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestLinePrefix(t *testing.T) {
	buf := capture(t, LInfo)
	Errorf("disk %s", "full")
	assert.Regexp(t, regexp.MustCompile(`^\[\d{4}-\d\d-\d\dT[^\]]+\] \d+:\d\d:\d\d \[error\] disk full\n$`), buf.String())
}

func TestDebugLevel(t *testing.T) {
	buf := capture(t, LDebug)
	Debugf("key %q", "a b")
	assert.Contains(t, buf.String(), `[debug] key "a b"`)
}

func TestStep(t *testing.T) {
	buf := capture(t, LStep)
	done := Step("export")
	done()
	out := buf.String()
	assert.Contains(t, out, "[step] Starting: export")
	assert.Contains(t, out, "[step] Finished: export in ")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	assert.NoError(t, err)
	assert.Equal(t, LWarn, l)
	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLineLevel(t *testing.T) {
	assert.Equal(t, LWarn, lineLevel([]byte("[warn] x")))
	assert.Equal(t, Level(""), lineLevel([]byte("no level")))
	assert.Equal(t, Level(""), lineLevel([]byte("[open")))
}
