package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAddsAppField(t *testing.T) {
	Init("comparison")
	hook := test.NewLocal(Logger())
	defer hook.Reset()
	SetOutput(&bytes.Buffer{})

	Infof("hello %s", "world")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "hello world", hook.LastEntry().Message)
	assert.Equal(t, "comparison", hook.LastEntry().Data["app"])
}

func TestSetLevelFiltersDebug(t *testing.T) {
	Init("comparison")
	hook := test.NewLocal(Logger())
	defer hook.Reset()
	SetOutput(&bytes.Buffer{})

	SetLevel(InfoLevel)
	Debugf("hidden")
	assert.Empty(t, hook.Entries)

	SetLevel(DebugLevel)
	defer SetLevel(InfoLevel)
	Debugf("shown")
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestResultfMarksEntry(t *testing.T) {
	Init("comparison")
	hook := test.NewLocal(Logger())
	defer hook.Reset()
	SetOutput(&bytes.Buffer{})

	Resultf("Screenshot saved to %s", "a.png")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, true, hook.LastEntry().Data["result"])
}
