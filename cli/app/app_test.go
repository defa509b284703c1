package app

import (
	"bytes"
	"testing"

	"github.com/nspcc-dev/spendkit/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	config.Version = "0.1.0-test"
	ctl := New()
	buf := new(bytes.Buffer)
	ctl.Writer = buf
	require.NoError(t, ctl.Run([]string{"spendkit", "--version"}))
	require.Contains(t, buf.String(), "SpendKit\nVersion: 0.1.0-test\n")
}

func TestCommands(t *testing.T) {
	ctl := New()
	require.Len(t, ctl.Commands, 1)
	require.Equal(t, "simulate", ctl.Commands[0].Name)
}
