package output

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestRenderer_PlainWhenNotTTY(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut)
	assert.False(t, r.IsTTY())

	r.Header(1, "Title")
	r.Success("done")
	r.StatusLine("models/a.sql", "success", "(3 spans)")
	r.StatusLine("models/b.sql", "skipped", "")
	r.StatusLine("models/c.sql", "error", "boom")
	r.Warning("careful")
	r.Error("failed")

	assert.Equal(t, "Title\n✓ done\n  ✓ models/a.sql (3 spans)\n  - models/b.sql\n  ✗ models/c.sql boom\n", out.String())
	assert.Equal(t, "! careful\n✗ failed\n", errOut.String())
	assert.NotContains(t, out.String(), "\x1b[")
}

func TestRenderer_ColorProfile(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, false)
	assert.Equal(t, termenv.ANSI256, r.ColorProfile())

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, r.ColorProfile())
}

func TestFormatKeyValue(t *testing.T) {
	assert.Equal(t, "Dialect: duckdb", FormatKeyValue("Dialect", "duckdb"))
}
