package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"star-spark/internal/common"

	"github.com/google/go-github/v53/github"
	"github.com/stretchr/testify/assert"
)

// newTestClient 创建一个指向模拟服务器的 GitHub 客户端
func newTestClient(server *httptest.Server) *github.Client {
	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL
	return client
}

// newTestFetcher 认证和公开请求都打到同一个模拟服务器
func newTestFetcher(server *httptest.Server) *Fetcher {
	client := newTestClient(server)
	return &Fetcher{
		public: client,
		newAuthed: func(ctx context.Context, token string) *github.Client {
			return client
		},
		perPage: 100,
		retryOpts: []common.Option{
			common.WithMaxRetries(0),
			common.WithInitialDelay(time.Millisecond),
		},
	}
}

// envelopeBody star+json 信封形状的响应体
func envelopeBody(starredAt, fullName string, id int64) string {
	return fmt.Sprintf(`{
		"starred_at": %q,
		"repo": {
			"id": %d,
			"full_name": %q,
			"description": "A test repo",
			"language": "Go",
			"stargazers_count": 420,
			"html_url": "https://github.com/%s",
			"archived": false,
			"fork": false,
			"topics": ["cli", "tooling"],
			"created_at": "2020-01-02T03:04:05Z",
			"updated_at": "2024-05-06T07:08:09Z",
			"owner": {"login": "tester", "avatar_url": "https://a.example/t.png", "html_url": "https://github.com/tester"}
		}
	}`, starredAt, id, fullName, fullName)
}

func TestNormalizeStarred(t *testing.T) {
	t.Run("信封形状", func(t *testing.T) {
		repo, err := normalizeStarred([]byte(envelopeBody("2024-06-01T10:00:00Z", "tester/spark", 7)))
		assert.NoError(t, err)
		assert.Equal(t, int64(7), repo.ID)
		assert.Equal(t, "tester/spark", repo.FullName)
		assert.Equal(t, "Go", repo.Language)
		assert.Equal(t, 420, repo.Stars)
		assert.Equal(t, []string{"cli", "tooling"}, repo.Topics)
		assert.Equal(t, "tester", repo.Owner.Login)
		assert.NotNil(t, repo.StarredAt)
		assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), repo.StarredAt.UTC())
	})

	t.Run("扁平形状-内联starred_at", func(t *testing.T) {
		repo, err := normalizeStarred([]byte(`{
			"id": 8,
			"full_name": "tester/flat",
			"stargazers_count": 12,
			"html_url": "https://github.com/tester/flat",
			"starred_at": "2024-06-02T10:00:00Z",
			"owner": {"login": "tester", "avatar_url": "", "html_url": ""}
		}`))
		assert.NoError(t, err)
		assert.Equal(t, int64(8), repo.ID)
		assert.Equal(t, "tester/flat", repo.FullName)
		assert.NotNil(t, repo.StarredAt)
	})

	t.Run("扁平形状-缺字段补空值", func(t *testing.T) {
		repo, err := normalizeStarred([]byte(`{"id": 9, "full_name": "tester/bare", "stargazers_count": 1, "html_url": "https://github.com/tester/bare"}`))
		assert.NoError(t, err)
		// 公开接口可能不带 starred_at / owner / topics，不能因此失败
		assert.Nil(t, repo.StarredAt)
		assert.Equal(t, "", repo.Owner.Login)
		assert.Equal(t, []string{}, repo.Topics)
		assert.Equal(t, "", repo.Description)
		assert.Equal(t, "", repo.Language)
	})

	t.Run("非法JSON报错", func(t *testing.T) {
		_, err := normalizeStarred([]byte(`"just a string"`))
		assert.Error(t, err)
	})
}

func TestFetcher_FetchStarred_PublicEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/starred", r.URL.Path)
		assert.Equal(t, "created", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("direction"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Contains(t, r.Header.Get("Accept"), "star+json")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "[%s,%s]",
			envelopeBody("2024-06-10T00:00:00Z", "octocat/first", 1),
			envelopeBody("2024-06-01T00:00:00Z", "octocat/second", 2))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server)
	repos, err := fetcher.FetchStarred(context.Background(), "octocat", "")

	assert.NoError(t, err)
	assert.Equal(t, 2, len(repos))
	assert.Equal(t, "octocat/first", repos[0].FullName)
	assert.Equal(t, "octocat/second", repos[1].FullName)
}

func TestFetcher_FetchStarred_AuthenticatedEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 有令牌时必须先打认证接口
		assert.Equal(t, "/user/starred", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "[%s]", envelopeBody("2024-06-10T00:00:00Z", "octocat/private-pick", 3))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server)
	repos, err := fetcher.FetchStarred(context.Background(), "octocat", "ghp_token")

	assert.NoError(t, err)
	assert.Equal(t, 1, len(repos))
	assert.Equal(t, "octocat/private-pick", repos[0].FullName)
}

func TestFetcher_FetchStarred_FallbackToPublic(t *testing.T) {
	authedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer authedServer.Close()

	publicServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/starred", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "[%s]", envelopeBody("2024-06-10T00:00:00Z", "octocat/public-pick", 4))
	}))
	defer publicServer.Close()

	fetcher := newTestFetcher(publicServer)
	fetcher.newAuthed = func(ctx context.Context, token string) *github.Client {
		return newTestClient(authedServer)
	}

	repos, err := fetcher.FetchStarred(context.Background(), "octocat", "ghp_expired")

	assert.NoError(t, err)
	assert.Equal(t, 1, len(repos))
	assert.Equal(t, "octocat/public-pick", repos[0].FullName)
}

func TestFetcher_FetchStarred_BothPathsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server)
	repos, err := fetcher.FetchStarred(context.Background(), "octocat", "ghp_token")

	assert.Error(t, err)
	assert.Nil(t, repos)
	assert.True(t, common.HasCode(err, common.ErrCodeStarredFetch))
}

func TestFetcher_FetchStarred_Pagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		if page == "2" {
			fmt.Fprintf(w, "[%s]", envelopeBody("2024-05-01T00:00:00Z", "octocat/older", 2))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/octocat/starred?page=2>; rel="next"`, server.URL))
		fmt.Fprintf(w, "[%s]", envelopeBody("2024-06-01T00:00:00Z", "octocat/newer", 1))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server)
	repos, err := fetcher.FetchStarred(context.Background(), "octocat", "")

	assert.NoError(t, err)
	assert.Equal(t, 2, len(repos))
	assert.Equal(t, "octocat/newer", repos[0].FullName)
	assert.Equal(t, "octocat/older", repos[1].FullName)
}
