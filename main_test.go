package main_test

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	mainapp "katalog"
	"katalog/internal/models"
)

func TestMain(m *testing.M) {
	// Point the app at throwaway resources before NewApp reads the
	// environment.
	os.Setenv("APP_PORT", ":8081")
	os.Setenv("DATABASE_DRIVER", "sqlite")
	os.Setenv("DATABASE_DSN", "file:maintest?mode=memory&cache=shared")
	uploadDir, err := os.MkdirTemp("", "katalog-uploads-")
	if err != nil {
		log.Fatalf("Failed to create temp upload dir: %v", err)
	}
	os.Setenv("UPLOAD_DIR", uploadDir)
	os.Setenv("RABBITMQ_URL", "")

	log.SetOutput(io.Discard)
	code := m.Run()

	os.RemoveAll(uploadDir)
	os.Exit(code)
}

func TestAppStartupAndHealthCheck(t *testing.T) {
	app, mqClient, err := mainapp.NewApp()
	assert.NoError(t, err)
	assert.Nil(t, mqClient, "events client should be disabled without RABBITMQ_URL")
	defer app.Shutdown()

	// --- Test Health Endpoint ---
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "\"status\":\"healthy\"")
	resp.Body.Close()

	// --- Products listing is wired up and empty on a fresh database ---
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var products []models.Product
	err = json.NewDecoder(resp.Body).Decode(&products)
	assert.NoError(t, err)
	assert.Empty(t, products)
	resp.Body.Close()
}

func TestAppRejectsUnknownDatabaseDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "oracle")

	_, _, err := mainapp.NewApp()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
