package zlog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSplitsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWithWriters(zapcore.AddSync(&out), zapcore.AddSync(&errOut), false)
	log.Debug("hidden")
	log.Info("iteration complete")
	log.Error("decode failed")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "iteration complete")
	assert.NotContains(t, out.String(), "decode failed")
	assert.Contains(t, errOut.String(), "decode failed")
	assert.NotContains(t, errOut.String(), "iteration complete")
}

func TestVerboseShowsDebug(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWithWriters(zapcore.AddSync(&out), zapcore.AddSync(&errOut), true)
	log.Debug("instance success")
	assert.Contains(t, out.String(), "instance success")
	assert.Empty(t, errOut.String())
}
