package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestFromArgs(t *testing.T) {
	req, err := requestFromArgs([]string{"Marty#2689"})
	require.NoError(t, err)
	assert.Equal(t, "Marty#2689", req.BungieName)

	req, err = requestFromArgs([]string{"3", "4611686018467484767"})
	require.NoError(t, err)
	assert.Equal(t, 3, req.MembershipType)
	assert.Equal(t, "4611686018467484767", req.MembershipID)

	_, err = requestFromArgs([]string{"Marty"})
	assert.Error(t, err)
	_, err = requestFromArgs([]string{"steam", "1"})
	assert.Error(t, err)
	_, err = requestFromArgs(nil)
	assert.Error(t, err)
}

func TestNewApp_EnvOnly(t *testing.T) {
	t.Setenv("D2L_LOGGING_FORMAT", "console")
	t.Setenv("D2L_BUNGIE_API_KEY", "test-key")
	configPath = ""

	a, err := newApp()
	require.NoError(t, err)
	assert.Equal(t, "test-key", a.cfg.Bungie.APIKey)
	assert.NotNil(t, a.service)
	assert.Equal(t, 0, a.resolver.Len())
	assert.NotPanics(t, a.close)
}
