package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	internal_http "github.com/atimaspi/fcbb-1-1-59/internal/http"
	"github.com/atimaspi/fcbb-1-1-59/internal/log"
	"github.com/atimaspi/fcbb-1-1-59/pkg/models"
	"github.com/atimaspi/fcbb-1-1-59/pkg/service"
	"github.com/atimaspi/fcbb-1-1-59/pkg/storage"
	"github.com/stretchr/testify/assert"
)

func newServer(store storage.Store) *httptest.Server {
	svc := service.NewWorkflowService(store, service.NewStoreSink(store), log.GetLogger())
	pub := service.NewPublisherService(store, log.GetLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("/health", internal_http.HealthHandler)
	mux.HandleFunc("/collections/", internal_http.CollectionsHandler(svc))
	mux.HandleFunc("/publisher/run", internal_http.PublisherRunHandler(pub))
	return httptest.NewServer(mux)
}

func newTestStore() storage.Store {
	store := storage.NewMockStore()
	storage.SetUserRole(store, "u1", models.RedatorRole)
	storage.SetUserRole(store, "revA", models.RevisorRole)
	storage.SetUserRole(store, "adm", models.AdminRole)
	return store
}

func doJSON(t *testing.T, client *http.Client, method, url, userID string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	} else {
		buf.WriteString("{}")
	}
	req, err := http.NewRequest(method, url, &buf)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := client.Do(req)
	assert.NoError(t, err)
	return resp
}

func decodeItem(t *testing.T, resp *http.Response) models.ContentItem {
	t.Helper()
	defer resp.Body.Close()
	var item models.ContentItem
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&item))
	return item
}

func TestServer(t *testing.T) {
	t.Run("HealthCheck", func(t *testing.T) {
		srv := newServer(newTestStore())
		defer srv.Close()

		resp, err := srv.Client().Get(srv.URL + "/health")
		assert.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("DraftToPublishedRoundTrip", func(t *testing.T) {
		srv := newServer(newTestStore())
		defer srv.Close()

		resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/collections/news/items", "u1",
			map[string]string{"title": "Final four"})
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		item := decodeItem(t, resp)
		assert.Equal(t, models.DraftContentStatus, item.Status)

		resp = doJSON(t, srv.Client(), http.MethodPost,
			fmt.Sprintf("%s/collections/news/items/%s/submit", srv.URL, item.ID), "u1", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.InReviewContentStatus, decodeItem(t, resp).Status)

		resp = doJSON(t, srv.Client(), http.MethodPost,
			fmt.Sprintf("%s/collections/news/items/%s/approve", srv.URL, item.ID), "revA", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		published := decodeItem(t, resp)
		assert.Equal(t, models.PublishedContentStatus, published.Status)
		assert.NotNil(t, published.PublishedAt)

		// Listing as the author still shows the item
		resp = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/collections/news/items", "u1", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var items []models.ContentItem
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
		resp.Body.Close()
		assert.Len(t, items, 1)
	})

	t.Run("RejectCarriesReason", func(t *testing.T) {
		store := newTestStore()
		srv := newServer(store)
		defer srv.Close()

		resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/collections/news/items", "u1",
			map[string]string{"title": "Sem fontes"})
		item := decodeItem(t, resp)
		resp = doJSON(t, srv.Client(), http.MethodPost,
			fmt.Sprintf("%s/collections/news/items/%s/submit", srv.URL, item.ID), "u1", nil)
		resp.Body.Close()

		resp = doJSON(t, srv.Client(), http.MethodPost,
			fmt.Sprintf("%s/collections/news/items/%s/reject", srv.URL, item.ID), "revA",
			map[string]string{"reason": "needs sources"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, models.RejectedContentStatus, decodeItem(t, resp).Status)

		notes := storage.Notifications(store)
		assert.NotEmpty(t, notes)
		assert.Contains(t, notes[len(notes)-1].Message, "needs sources")
	})

	t.Run("ErrorMapping", func(t *testing.T) {
		srv := newServer(newTestStore())
		defer srv.Close()

		// Unknown collection -> 400
		resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/collections/secrets/items", "adm",
			map[string]string{"title": "x"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()

		// Anonymous create -> 403
		resp = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/collections/news/items", "",
			map[string]string{"title": "x"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()

		// Missing item -> 404
		resp = doJSON(t, srv.Client(), http.MethodPost,
			srv.URL+"/collections/news/items/00000000-0000-0000-0000-000000000000/approve", "revA", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()

		// Approving a draft -> 422
		resp = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/collections/news/items", "u1",
			map[string]string{"title": "Ainda rascunho"})
		item := decodeItem(t, resp)
		resp = doJSON(t, srv.Client(), http.MethodPost,
			fmt.Sprintf("%s/collections/news/items/%s/approve", srv.URL, item.ID), "revA", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("SchedulingAndPublisherRun", func(t *testing.T) {
		store := newTestStore()
		srv := newServer(store)
		defer srv.Close()

		resp := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/collections/news/items", "u1",
			map[string]string{"title": "Agendada"})
		item := decodeItem(t, resp)

		resp = doJSON(t, srv.Client(), http.MethodPost,
			fmt.Sprintf("%s/collections/news/items/%s/schedule", srv.URL, item.ID), "adm",
			map[string]interface{}{"scheduled_date": time.Now().Add(-time.Hour).Format(time.RFC3339)})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/publisher/run", "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var summary service.Summary
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
		resp.Body.Close()
		assert.Equal(t, 1, summary.Processed)
		assert.Equal(t, 1, summary.Published)

		got, err := store.GetContentItem("news", item.ID)
		assert.NoError(t, err)
		assert.Equal(t, models.PublishedContentStatus, got.Status)
	})
}
