package articles

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openclaw/hr-agency-api/pkg/logging"
)

const (
	defaultGitHubAPIBase = "https://api.github.com"
	githubUserAgent      = "openclaw-admin"
)

// GitHubStore persists the article list through the GitHub Contents API so
// edits from the admin panel land as commits in the site repository. The
// blob sha returned on read is the optimistic-concurrency handle required
// on write.
type GitHubStore struct {
	apiBase string
	repo    string // "owner/name"
	path    string // path of the JSON document inside the repo
	token   string
	branch  string
	client  *http.Client
	logger  *logging.Logger
}

// NewGitHubStore creates a GitHub-backed store. Returns nil unless both the
// repository and the token are configured.
func NewGitHubStore(repo, path, token, branch string, client *http.Client, logger *logging.Logger) *GitHubStore {
	if repo == "" || token == "" {
		return nil
	}
	if branch == "" {
		branch = "main"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &GitHubStore{
		apiBase: defaultGitHubAPIBase,
		repo:    repo,
		path:    path,
		token:   token,
		branch:  branch,
		client:  client,
		logger:  logger,
	}
}

func (s *GitHubStore) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", s.apiBase, s.repo, s.path)
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// Load fetches the JSON document and its blob sha. A 404 reads as an empty
// list with no sha, which lets the first save create the file.
func (s *GitHubStore) Load(ctx context.Context) ([]Article, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.contentsURL()+"?ref="+s.branch, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build github contents request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch articles from github: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []Article{}, "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("github read failed with status %d", resp.StatusCode)
	}

	var body contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("decode github contents response: %w", err)
	}

	// The API wraps base64 at 60 columns; strip the newlines before decoding.
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, body.Content)

	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, "", fmt.Errorf("decode articles blob: %w", err)
	}
	if len(bytes.TrimSpace(decoded)) == 0 {
		return []Article{}, body.SHA, nil
	}

	var list []Article
	if err := json.Unmarshal(decoded, &list); err != nil {
		return nil, "", fmt.Errorf("parse articles JSON: %w", err)
	}
	return list, body.SHA, nil
}

type updateRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// Save commits the updated document. The sha guards against clobbering a
// concurrent edit; GitHub rejects the write with a conflict if it is stale.
func (s *GitHubStore) Save(ctx context.Context, list []Article, rev string) error {
	raw, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal articles: %w", err)
	}

	payload := updateRequest{
		Message: "chore: update articles from admin panel",
		Content: base64.StdEncoding.EncodeToString(raw),
		Branch:  s.branch,
		SHA:     rev,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal github update request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build github update request: %w", err)
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("save articles to github: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("github save failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return nil
}

func (s *GitHubStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("User-Agent", githubUserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
}

var _ Store = (*GitHubStore)(nil)
