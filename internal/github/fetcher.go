// Package github fetches the textbook's markdown sources from its GitHub
// repository, for deployments that index the published book instead of a
// local checkout.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"

	"github.com/sobiamehak/humanoid-robotic-book/internal/ingest"
)

// Default location of the published textbook sources.
const (
	DefaultOwner    = "sobiamehak"
	DefaultRepo     = "humanoid-robotic-book"
	DefaultBasePath = "docs"
)

// Fetcher lists and downloads markdown files from one repository directory.
type Fetcher struct {
	client   *github.Client
	owner    string
	repo     string
	basePath string
	logger   *slog.Logger
}

// NewFetcher creates a Fetcher. The underlying client waits out GitHub rate
// limits instead of failing. token may be empty; unauthenticated requests
// get the much smaller per-hour quota.
func NewFetcher(token, owner, repo, basePath string, logger *slog.Logger) (*Fetcher, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	client := github.NewClient(rateLimiter)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if owner == "" {
		owner = DefaultOwner
	}
	if repo == "" {
		repo = DefaultRepo
	}
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
		logger:   logger,
	}, nil
}

// ListDocs returns the repository-relative paths of every markdown file
// under the base path, including subdirectories.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listDir(ctx, f.basePath)
}

func (f *Fetcher) listDir(ctx context.Context, dir string) ([]string, error) {
	_, entries, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, dir, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var docs []string
	for _, entry := range entries {
		name := entry.GetName()
		switch entry.GetType() {
		case "file":
			if isMarkdown(name) {
				docs = append(docs, path.Join(dir, name))
			}
		case "dir":
			sub, err := f.listDir(ctx, path.Join(dir, name))
			if err != nil {
				return nil, err
			}
			docs = append(docs, sub...)
		}
	}
	return docs, nil
}

// FetchDoc downloads one file and decodes its content.
func (f *Fetcher) FetchDoc(ctx context.Context, repoPath string) (ingest.Document, error) {
	file, _, _, err := f.client.Repositories.GetContents(ctx, f.owner, f.repo, repoPath, nil)
	if err != nil {
		return ingest.Document{}, fmt.Errorf("fetch %s: %w", repoPath, err)
	}
	if file == nil {
		return ingest.Document{}, fmt.Errorf("fetch %s: not a file", repoPath)
	}

	content, err := file.GetContent()
	if err != nil {
		return ingest.Document{}, fmt.Errorf("decode %s: %w", repoPath, err)
	}
	return ingest.Document{Path: repoPath, Content: []byte(content)}, nil
}

// FetchAll lists and downloads every markdown file under the base path.
func (f *Fetcher) FetchAll(ctx context.Context) ([]ingest.Document, error) {
	paths, err := f.ListDocs(ctx)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Fetching textbook sources from GitHub",
		"owner", f.owner, "repo", f.repo, "files", len(paths))

	docs := make([]ingest.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := f.FetchDoc(ctx, p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LatestCommitSHA returns the SHA of the newest commit touching the base
// path, used to decide whether a re-index is needed.
func (f *Fetcher) LatestCommitSHA(ctx context.Context) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(ctx, f.owner, f.repo, &github.CommitsListOptions{
		Path:        f.basePath,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("list commits: %w", err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("no commits touch %s", f.basePath)
	}
	return commits[0].GetSHA(), nil
}

func isMarkdown(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".mdx")
}
