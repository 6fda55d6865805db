package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
	"gitlab.com/kavenc/prismabot/internal/pkg/responder"
	"gitlab.com/kavenc/prismabot/internal/pkg/whatsapp"
)

func TestParseFlags(t *testing.T) {
	assert := assert.New(t)

	opts, err := parseFlags([]string{"-p", "8080", "--assets", "/srv/prisma"})
	if !assert.NoError(err) {
		return
	}
	assert.Equal(".env", opts.envFile)
	assert.Equal(map[string]string{"PORT": "8080", "ASSETS_DIR": "/srv/prisma"}, opts.overrides)

	value, ok := opts.lookup("PORT")
	assert.True(ok)
	assert.Equal("8080", value)

	_, err = parseFlags([]string{"--unknown"})
	assert.Error(err)
}

func TestBuildPlugins(t *testing.T) {
	assert := assert.New(t)
	config, err := prismabot.LoadConfig(func(key string) (string, bool) {
		if key == "ARCHIVE_DISABLED" {
			return "true", true
		}
		return "", false
	})
	if !assert.NoError(err) {
		return
	}

	plugins, err := buildPlugins(config)
	if !assert.NoError(err) {
		return
	}
	if assert.Len(plugins, 2) {
		assert.Equal(whatsapp.ID, plugins[0].ID())
		assert.Equal(responder.ID, plugins[1].ID())
	}

	config.ScriptPath = "/nonexistent/script.yaml"
	_, err = buildPlugins(config)
	assert.Error(err)
}
