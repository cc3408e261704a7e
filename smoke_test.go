package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recsync/features/catalogsync"
	"recsync/internal/adapter/kontent"
	wengine "recsync/internal/adapter/weaviate"
	"recsync/internal/app"
	"recsync/internal/catalog"
	"recsync/internal/signature"
	"recsync/internal/testutils"
)

const smokeItem = `{"system":{"id":"abc","name":"Green tea","codename":"green_tea","language":"en","type":"product","last_modified":"2024-05-01T10:00:00Z"},"elements":{"title":{"type":"text","name":"Title","value":"Green tea"}}}`

func TestSmoke_WebhookRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping smoke test in short mode")
	}

	// 1. Start infrastructure
	suite := testutils.NewIntegrationSuite(t)
	suite.SetupPostgres()
	suite.SetupWeaviate()
	defer suite.Teardown()

	kts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/env/types/product":
			w.Write([]byte(`{"system":{"codename":"product"},"elements":{"title":{"type":"text","name":"Title"}}}`))
		case "/env/items/green_tea":
			w.Write([]byte(`{"item":` + smokeItem + `}`))
		case "/env/items-feed":
			w.Write([]byte(`{"items":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer kts.Close()

	// 2. Configure the app against it
	cfg := suite.GetAppConfig()
	cfg.ServerPort = 8081
	cfg.KontentSecret = "smoke-secret"
	cfg.KontentDeliveryURL = kts.URL
	cfg.KontentEnvironmentID = "env"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := app.Bootstrap(ctx, cfg)
	require.NoError(t, err)
	defer deps.Close()

	// 3. Declare the catalog structure
	src := kontent.NewClient(kontent.Config{EnvironmentID: "env", ContentType: "product", Language: "en"}, app.KontentOptions(cfg)...)
	_, err = catalogsync.NewService(catalog.NewSyncer(deps.Engine)).Run(ctx, src, true)
	require.NoError(t, err)

	// 4. Run the server
	a, err := app.New(cfg, deps)
	require.NoError(t, err)
	go func() {
		if err := a.Run(ctx); err != nil {
			t.Logf("app run exited: %v", err)
		}
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://localhost:8081/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 500*time.Millisecond)

	objectID := wengine.ObjectID(cfg.WeaviateClass, "abc_en")
	exists := func() bool {
		ok, err := suite.Weaviate.Data().Checker().WithClassName(cfg.WeaviateClass).WithID(objectID).Do(ctx)
		require.NoError(t, err)
		return ok
	}

	// 5. Publish then unpublish
	postWebhook(t, cfg.KontentSecret, "published")
	assert.True(t, exists())

	postWebhook(t, cfg.KontentSecret, "unpublished")
	assert.False(t, exists())

	resp, err := http.Get("http://localhost:8081/failures")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list struct {
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, 0, list.Meta.Total)
}

func postWebhook(t *testing.T, secret, action string) {
	t.Helper()
	body := `{"notifications":[{"data":{"system":{"id":"abc","codename":"green_tea","language":"en","type":"product"}},"message":{"environment_id":"env","object_type":"content_item","action":"` + action + `"}}]}`

	req, err := http.NewRequest(http.MethodPost, "http://localhost:8081/webhook?types=product&languages=en", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set(signature.HeaderName, signature.Sign([]byte(body), secret))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
