package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "recsync/internal/adapter/weaviate"
	"recsync/internal/catalog"
)

func mockWeaviate(t *testing.T, handler http.HandlerFunc) *weaviate.Client {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"version": "1.25.0"}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	client, err := weaviate.NewClient(weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"})
	require.NoError(t, err)
	return client
}

func TestObjectID_Deterministic(t *testing.T) {
	a := adapter.ObjectID("CatalogItem", "abc_en")
	assert.Equal(t, a, adapter.ObjectID("CatalogItem", "abc_en"))
	assert.NotEqual(t, a, adapter.ObjectID("CatalogItem", "abc_de"))
	assert.NotEqual(t, a, adapter.ObjectID("Other", "abc_en"))
}

func TestEngine_SetItems(t *testing.T) {
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/batch/objects", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Objects []map[string]any `json:"objects"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if !assert.Len(t, body.Objects, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		obj := body.Objects[0]
		assert.Equal(t, "CatalogItem", obj["class"])
		assert.Equal(t, adapter.ObjectID("CatalogItem", "abc_en"), obj["id"])
		props := obj["properties"].(map[string]any)
		assert.Equal(t, "abc_en", props[adapter.PropItemID])
		assert.Equal(t, "Green tea", props["title"])
		assert.NotContains(t, props, "empty")

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode([]map[string]any{{"id": obj["id"], "result": map[string]any{}}})
	})

	engine := adapter.NewEngine(client, "")
	err := engine.SetItems(context.Background(), []catalog.Item{{
		ID:     "abc_en",
		Values: map[string]any{"title": "Green tea", "empty": nil},
	}})
	assert.NoError(t, err)
}

func TestEngine_SetItems_ProjectsOptionsToCodenames(t *testing.T) {
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Objects []map[string]any `json:"objects"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if !assert.Len(t, body.Objects, 1) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		props := body.Objects[0]["properties"].(map[string]any)
		assert.Equal(t, []any{"black", "green"}, props["variety"])
		assert.Equal(t, []any{}, props["flavours"])
		assert.Equal(t, []any{"tea", "green"}, props["tags"])
		assert.Equal(t, []any{float64(1), "x"}, props["custom"])

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode([]map[string]any{{"id": body.Objects[0]["id"], "result": map[string]any{}}})
	})

	var variety any
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"Black","codename":"black"},{"name":"Green","codename":"green"}]`), &variety))

	engine := adapter.NewEngine(client, "")
	err := engine.SetItems(context.Background(), []catalog.Item{{
		ID: "abc_en",
		Values: map[string]any{
			"variety":  variety,
			"flavours": []any{},
			"tags":     []string{"tea", "green"},
			"custom":   []any{1, "x"},
		},
	}})
	assert.NoError(t, err)
}

func TestEngine_SetItems_ObjectError(t *testing.T) {
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode([]map[string]any{{
			"id": adapter.ObjectID("CatalogItem", "abc_en"),
			"result": map[string]any{
				"errors": map[string]any{"error": []map[string]any{{"message": "invalid date"}}},
			},
		}})
	})

	engine := adapter.NewEngine(client, "CatalogItem")
	err := engine.SetItems(context.Background(), []catalog.Item{{ID: "abc_en"}})
	assert.ErrorContains(t, err, "invalid date")
}

func TestEngine_SetItems_Empty(t *testing.T) {
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	assert.NoError(t, adapter.NewEngine(client, "").SetItems(context.Background(), nil))
}

func TestEngine_DeleteItems(t *testing.T) {
	var paths []string
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/v1/objects/CatalogItem/"+adapter.ObjectID("CatalogItem", "gone_en") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	engine := adapter.NewEngine(client, "")
	err := engine.DeleteItems(context.Background(), []string{"abc_en", "gone_en"})
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"/v1/objects/CatalogItem/" + adapter.ObjectID("CatalogItem", "abc_en"),
		"/v1/objects/CatalogItem/" + adapter.ObjectID("CatalogItem", "gone_en"),
	}, paths)
}

func TestEngine_DeleteItems_ServerError(t *testing.T) {
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := adapter.NewEngine(client, "").DeleteItems(context.Background(), []string{"abc_en"})
	assert.ErrorContains(t, err, "delete abc_en")
}

func TestEngine_AddProperties_CreatesClass(t *testing.T) {
	var created bool
	client := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/schema/CatalogItem":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/schema":
			var class map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&class))
			assert.Equal(t, "CatalogItem", class["class"])
			created = true
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"class":"CatalogItem"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	err := adapter.NewEngine(client, "").AddProperties(context.Background(), catalog.SystemProperties())
	assert.NoError(t, err)
	assert.True(t, created)
}
