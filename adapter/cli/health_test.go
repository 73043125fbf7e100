package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCmd(t *testing.T) {
	defer SetApp(nil)

	tests := []struct {
		name    string
		app     *App
		wantErr string
	}{
		{name: "no app", app: nil, wantErr: "app not initialized"},
		{name: "reachable", app: &App{Ping: func(context.Context) error { return nil }}},
		{name: "unreachable", app: &App{Ping: func(context.Context) error { return errors.New("locked") }}, wantErr: "database unreachable: locked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetApp(tt.app)
			var out bytes.Buffer
			healthCmd.SetOut(&out)
			healthCmd.SetContext(context.Background())

			err := healthCmd.RunE(healthCmd, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ok\n", out.String())
		})
	}
}

func TestVersionCmd(t *testing.T) {
	defer func() { versionShort = false }()

	var out bytes.Buffer
	versionCmd.SetOut(&out)

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "cadence "+Version)
	assert.Contains(t, out.String(), "commit: "+Commit)

	out.Reset()
	versionShort = true
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, Version+"\n", out.String())
}
