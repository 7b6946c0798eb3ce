package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/NeuralTrust/TrailTrigger/pkg/config"
	"github.com/NeuralTrust/TrailTrigger/pkg/version"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseServer_HealthEndpoints(t *testing.T) {
	srv := NewBaseServer(&config.Config{}, logrus.New())

	for _, path := range []string{"/health", AdminHealthPath} {
		resp, err := srv.Router.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
	}
}

func TestBaseServer_Version(t *testing.T) {
	srv := NewBaseServer(&config.Config{}, logrus.New())

	resp, err := srv.Router.Test(httptest.NewRequest(fiber.MethodGet, "/version", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var info version.Info
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, version.AppName, info.AppName)
}
