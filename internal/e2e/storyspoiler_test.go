package e2e

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/phuslu/log"
	"github.com/stretchr/testify/require"

	"github.com/storyspoiler/storyspoiler/internal/client"
	"github.com/storyspoiler/storyspoiler/internal/config"
	"github.com/storyspoiler/storyspoiler/internal/twin"
	"github.com/storyspoiler/storyspoiler/pkg/testutil"
)

// EnvLive switches the suite from the twin to the configured deployment.
const EnvLive = "SPOILER_E2E_LIVE"

type target struct {
	baseURL string
	http    *http.Client
	token   string
}

// setup resolves the deployment and authenticates once.
func setup(t *testing.T) target {
	t.Helper()

	var tg target
	username, password := twin.DefaultUsername, twin.DefaultPassword
	if os.Getenv(EnvLive) == "1" {
		cfg, err := config.Load(config.ResolvePath(""))
		require.NoError(t, err)
		tg.baseURL = cfg.BaseURL
		tg.http = &http.Client{Timeout: cfg.Timeout.Duration}
		username, password = cfg.Username, cfg.Password
	} else {
		tw, err := twin.New(twin.Options{
			Logger: &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}},
		})
		require.NoError(t, err)
		srv := httptest.NewServer(tw)
		t.Cleanup(srv.Close)
		tg.baseURL = srv.URL
		tg.http = srv.Client()
	}

	c := client.New(tg.baseURL, client.WithHTTPClient(tg.http))
	token, err := c.Authenticate(context.Background(), username, password)
	require.NoError(t, err, "authentication must succeed before any story case runs")
	tg.token = token
	return tg
}

// expect returns an httpexpect bound to t that sends the bearer token.
func (tg target) expect(t *testing.T) *httpexpect.Expect {
	return testutil.NewExpectURL(t, tg.baseURL, tg.http).Builder(func(req *httpexpect.Request) {
		req.WithHeader("Authorization", testutil.Bearer(tg.token))
	})
}

// TestStorySpoiler runs the seven cases in order. The id created by the
// first case is threaded to edit and delete.
func TestStorySpoiler(t *testing.T) {
	tg := setup(t)
	var storyID string

	t.Run("CreateStorySpoilerWithRequiredFields", func(t *testing.T) {
		obj := tg.expect(t).POST("/api/Story/Create").
			WithJSON(client.StoryInput{Title: "New Story", Description: "Created story test.", URL: ""}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		storyID = obj.Value("storyId").String().NotEmpty().Raw()
		obj.HasValue("msg", "Successfully created!")
	})

	t.Run("EditCreatedStorySpoiler", func(t *testing.T) {
		require.NotEmpty(t, storyID, "create must have produced an id")
		tg.expect(t).PUT("/api/Story/Edit/{id}", storyID).
			WithJSON(client.StoryInput{Title: "Updated Story", Description: "Edited story test.", URL: ""}).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("msg", "Successfully edited")
	})

	t.Run("GetAllStorySpoilers", func(t *testing.T) {
		tg.expect(t).GET("/api/Story/All").
			Expect().
			Status(http.StatusOK).
			JSON().Array().NotEmpty()
	})

	t.Run("DeleteStorySpoiler", func(t *testing.T) {
		require.NotEmpty(t, storyID, "create must have produced an id")
		tg.expect(t).DELETE("/api/Story/Delete/{id}", storyID).
			Expect().
			Status(http.StatusOK).
			JSON().Object().
			HasValue("msg", "Deleted successfully!")
	})

	t.Run("CreateStorySpoilerWithoutRequiredFields", func(t *testing.T) {
		tg.expect(t).POST("/api/Story/Create").
			WithJSON(map[string]string{"title": "", "description": ""}).
			Expect().
			Status(http.StatusBadRequest)
	})

	t.Run("EditNonExistingStorySpoiler", func(t *testing.T) {
		// Message left unasserted: the API's wording for this case is not pinned down.
		tg.expect(t).PUT("/api/Story/Edit/123").
			WithJSON([]map[string]string{{"path": "/title", "op": "replace", "value": "Edited"}}).
			Expect().
			Status(http.StatusBadRequest)
	})

	t.Run("DeleteNonExistingStorySpoiler", func(t *testing.T) {
		tg.expect(t).DELETE("/api/Story/Delete/123").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().
			HasValue("msg", "Unable to delete this story spoiler!")
	})
}

// TestRejectsMissingToken checks the story routes refuse unauthenticated
// calls. Twin only; the live host's behaviour is not part of the suite.
func TestRejectsMissingToken(t *testing.T) {
	if os.Getenv(EnvLive) == "1" {
		t.Skip("twin-only check")
	}
	tg := setup(t)
	testutil.NewExpectURL(t, tg.baseURL, tg.http).
		GET("/api/Story/All").
		Expect().
		Status(http.StatusUnauthorized)
}
