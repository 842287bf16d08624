package main

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd(t *testing.T) {
	cmd := NewVersionCmd()
	b := new(bytes.Buffer)
	cmd.SetOut(b)

	err := cmd.Execute()
	assert.NoError(t, err)

	out := b.String()
	assert.Contains(t, out, "overseer version")
	assert.Contains(t, out, version)
	assert.Contains(t, out, commit)
	assert.Contains(t, out, date)
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, runtime.GOOS)
	assert.Contains(t, out, runtime.GOARCH)
}
