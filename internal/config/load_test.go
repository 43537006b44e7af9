package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveComments(t *testing.T) {
	in := []byte(`{
	// api endpoint
	"client": {
		"api_url": "http://bank.lfmsh.ru/api/v1/"
	}
}
`)
	out := string(removeComments(in))

	assert.NotContains(t, out, "api endpoint")
	assert.Contains(t, out, `"http://bank.lfmsh.ru/api/v1/"`)
}

func TestDefaults(t *testing.T) {
	var c Config
	err := setDefaultConfig().Unmarshal(&c)
	assert.NoError(t, err)

	assert.Equal(t, 30, c.Client.TimeoutSeconds)
	assert.Equal(t, 60, c.Server.AccessTokenMinutes)
	assert.Equal(t, 30, c.Server.RefreshTokenDays)
	assert.Equal(t, "r", c.Server.DefaultPassword)
	assert.NotEmpty(t, c.Client.APIURL)
}

func TestSetConfig(t *testing.T) {
	SetConfig("client.api_url", "http://example.test/api/v1/")
	assert.Equal(t, "http://example.test/api/v1/", GetConfig().Client.APIURL)
}
