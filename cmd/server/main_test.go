package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/config"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:               "test",
		StoreDriver:       config.StoreDriverMemory,
		JWTSecret:         "secret",
		TokenTTL:          time.Hour,
		CORSOrigin:        "http://localhost:5173",
		StorageBackend:    config.StorageLocal,
		UploadDir:         t.TempDir(),
		PublicBaseURL:     "http://localhost:8000",
		ImageMaxDimension: 800,
		ImageJPEGQuality:  80,
		ImageMaxPixels:    40_000_000,
		MaxUploadBytes:    1 << 20,
	}
}

func TestNewApp_Health(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.close()

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
}

func TestNewApp_UnknownStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageBackend = "ftp"

	_, err := newApp(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
