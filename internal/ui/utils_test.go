package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prevOut, prevNoColor := Out, color.NoColor
	Out, color.NoColor = buf, true
	t.Cleanup(func() { Out, color.NoColor = prevOut, prevNoColor })
	return buf
}

func TestPrinters(t *testing.T) {
	buf := capture(t)

	PrintWarning("3 features skipped")
	PrintError("quota exceeded")
	PrintSuccess("done")
	PrintInfo("loading")
	PrintField("points", 12)

	out := buf.String()
	assert.Contains(t, out, "Warning:\n3 features skipped\n")
	assert.Contains(t, out, "Error: quota exceeded\n")
	assert.Contains(t, out, "\ndone\n")
	assert.Contains(t, out, "loading\n")
	assert.Contains(t, out, "  points:          12\n")
}

func TestPrintBanner(t *testing.T) {
	buf := capture(t)
	PrintBanner("S2")
	assert.NotEmpty(t, buf.String())
	assert.Greater(t, bytes.Count(buf.Bytes(), []byte("\n")), 2)
}
