package httpboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/platform"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/qa"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/secrets"
)

func testCreds(platformID, token string) secrets.Store {
	store := secrets.NewSourceStore()
	store.Register(platformID, secrets.Source{Name: "test token", Value: token})
	return store
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New("board", server.URL, testCreds("board", "secret-token"), zap.NewNop())
}

func TestLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)

	ok, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, client.IsLoggedIn())
}

func TestLoginRejectedCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client := newTestClient(t, mux)

	ok, err := client.Login(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, client.IsLoggedIn())
}

func TestLoginMissingCredential(t *testing.T) {
	client := New("board", "http://unused", secrets.NewSourceStore(), zap.NewNop())

	ok, err := client.Login(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, secrets.ErrCredentialMissing)
}

func TestSearchJobsPaginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")

		resp := map[string]any{
			"found":    3,
			"pages":    2,
			"per_page": 2,
		}
		switch page {
		case "0":
			resp["page"] = 0
			resp["items"] = []map[string]any{
				{"id": "1", "title": "Go Developer", "company": "Acme", "remote": true},
				{"id": "2", "title": "Python Developer", "company": "Acme"},
			}
		case "1":
			resp["page"] = 1
			resp["items"] = []map[string]any{
				{"id": "3", "title": "Platform Engineer", "company": "Globex",
					"salary": map[string]any{"from": 100000, "to": 140000, "currency": "USD"}},
			}
		default:
			t.Errorf("unexpected page %q", page)
		}

		_ = json.NewEncoder(w).Encode(resp)
	})

	client := newTestClient(t, mux)

	cursor, err := client.SearchJobs(context.Background(), &platform.SearchFilters{Text: "developer"})
	require.NoError(t, err)

	var ids []string
	for {
		posting, err := cursor.Next(context.Background())
		if err == platform.ErrEndOfSearch {
			break
		}
		require.NoError(t, err)
		ids = append(ids, posting.ExternalID)

		if posting.ExternalID == "3" {
			require.NotNil(t, posting.Salary)
			assert.Equal(t, 140000, posting.Salary.To)
		}
		assert.Equal(t, "board", posting.PlatformID)
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestGetJobDetailsAbsent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client := newTestClient(t, mux)

	posting, err := client.GetJobDetails(context.Background(), "gone")
	require.NoError(t, err)
	assert.Nil(t, posting)
}

func TestGetJobDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/42", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "42",
			"title": "Go Developer",
			"form":  "Why do you want to work here?",
		})
	})

	client := newTestClient(t, mux)

	posting, err := client.GetJobDetails(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, posting)
	assert.Equal(t, "board/42", posting.Key())
	assert.Equal(t, "Why do you want to work here?", posting.Form)
}

func TestSubmitApplication(t *testing.T) {
	var received map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/42/applications", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		received = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			received[key] = values[0]
		}
		w.WriteHeader(http.StatusCreated)
	})

	client := newTestClient(t, mux)

	posting := testPosting()
	ok, err := client.SubmitApplication(context.Background(), posting, []qa.Answer{
		{QuestionOrdinal: 0, Text: "Because I love Go."},
		{QuestionOrdinal: 1, Text: "Yes"},
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Because I love Go.", received["answer_0"])
	assert.Equal(t, "Yes", received["answer_1"])
}

func TestSubmitApplicationConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/42/applications", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	client := newTestClient(t, mux)

	posting := testPosting()
	ok, err := client.SubmitApplication(context.Background(), posting, nil)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitApplicationServerErrorIsTransient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs/42/applications", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := newTestClient(t, mux)

	posting := testPosting()
	_, err := client.SubmitApplication(context.Background(), posting, nil)

	assert.True(t, platform.IsTransient(err), "expected transient error, got %v", err)
}

func testPosting() *job.Posting {
	return &job.Posting{PlatformID: "board", ExternalID: "42", Title: "Go Developer"}
}
