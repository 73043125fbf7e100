package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigFile(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "absent", args: []string{"habit", "list"}, want: ""},
		{name: "long flag", args: []string{"--config", "cadence.yaml", "habit", "list"}, want: "cadence.yaml"},
		{name: "short flag", args: []string{"habit", "-c", "/etc/cadence.yaml"}, want: "/etc/cadence.yaml"},
		{name: "equals form", args: []string{"--config=dev.yaml"}, want: "dev.yaml"},
		{name: "dangling flag", args: []string{"habit", "--config"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFile(tt.args))
		})
	}
}

func TestVerbose(t *testing.T) {
	assert.True(t, Verbose([]string{"habit", "-v"}))
	assert.True(t, Verbose([]string{"--verbose", "habit"}))
	assert.False(t, Verbose([]string{"habit", "list"}))
}
