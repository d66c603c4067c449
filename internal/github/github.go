package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	gh "github.com/google/go-github/github"
	"golang.org/x/oauth2"

	"github.com/dshills/archcheck/internal/changes"
	"github.com/dshills/archcheck/internal/gitctx"
	"github.com/dshills/archcheck/internal/logger"
)

const defaultAPIURL = "https://api.github.com/"

// ErrNoToken is returned when GITHUB_TOKEN is unset.
var ErrNoToken = errors.New("GITHUB_TOKEN environment variable is not set")

// Client provides access to the GitHub REST API.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
func NewClient(ctx context.Context) (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, ErrNoToken
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return newClient(oauth2.NewClient(ctx, ts), os.Getenv("GITHUB_API_URL"))
}

func newClient(httpClient *http.Client, apiURL string) (*Client, error) {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	base, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid GITHUB_API_URL: %w", err)
	}
	c := gh.NewClient(httpClient)
	c.BaseURL = base
	return &Client{gh: c}, nil
}

// PullRequest identifies a pull request and the commits it compares.
type PullRequest struct {
	Owner   string
	Repo    string
	Number  int
	Title   string
	BaseSHA string
	HeadSHA string
}

// Snapshot holds the file changes of a pull request.
type Snapshot struct {
	PR      PullRequest
	Changes []changes.FileChange
	RawDiff string
	Skipped []string
}

// Snapshot fetches the pull request, its changed files at base and head, and
// its unified diff. Files are filtered with opts the same way as local git
// sources.
func (c *Client) Snapshot(ctx context.Context, owner, repo string, number int, opts gitctx.Options) (*Snapshot, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, apiError(err, resp, owner, repo, number)
	}
	snap := &Snapshot{PR: PullRequest{
		Owner:   owner,
		Repo:    repo,
		Number:  number,
		Title:   pr.GetTitle(),
		BaseSHA: pr.GetBase().GetSHA(),
		HeadSHA: pr.GetHead().GetSHA(),
	}}

	files, err := c.listFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = gitctx.DefaultMaxFileBytes
	}
	for _, f := range files {
		path := f.GetFilename()
		if len(opts.Include) > 0 && !gitctx.MatchesAny(path, opts.Include) || gitctx.MatchesAny(path, opts.Exclude) {
			continue
		}
		var before, after string
		if f.GetStatus() != "added" {
			before, err = c.content(ctx, owner, repo, path, snap.PR.BaseSHA)
		}
		if err == nil && f.GetStatus() != "removed" {
			after, err = c.content(ctx, owner, repo, path, snap.PR.HeadSHA)
		}
		if err != nil {
			logger.Warn(ctx, "skipping pull request file", "path", path, "error", err)
			snap.Skipped = append(snap.Skipped, path)
			err = nil
			continue
		}
		if len(before) > maxBytes || len(after) > maxBytes {
			snap.Skipped = append(snap.Skipped, path)
			continue
		}
		snap.Changes = append(snap.Changes, changes.FileChange{Path: path, Before: before, After: after})
	}

	raw, resp, err := c.gh.PullRequests.GetRaw(ctx, owner, repo, number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return nil, apiError(err, resp, owner, repo, number)
	}
	snap.RawDiff = raw
	return snap, nil
}

func (c *Client) listFiles(ctx context.Context, owner, repo string, number int) ([]*gh.CommitFile, error) {
	var all []*gh.CommitFile
	opt := &gh.ListOptions{PerPage: 100}
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opt)
		if err != nil {
			return nil, apiError(err, resp, owner, repo, number)
		}
		all = append(all, files...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opt.Page = resp.NextPage
	}
}

// content returns a file's text at ref. A path missing at ref is empty.
func (c *Client) content(ctx context.Context, owner, repo, path, ref string) (string, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("fetching %s@%s: %w", path, ref, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s is not a file", path)
	}
	return file.GetContent()
}

// PostComment adds a comment to the pull request conversation.
func (c *Client) PostComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, resp, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return apiError(err, resp, owner, repo, number)
	}
	return nil
}

func apiError(err error, resp *gh.Response, owner, repo string, number int) error {
	if resp == nil {
		return fmt.Errorf("GitHub request failed: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("PR #%d not found in %s/%s", number, owner, repo)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("authentication failed: %w", err)
	default:
		return fmt.Errorf("GitHub API error (status %d): %w", resp.StatusCode, err)
	}
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the git remote origin URL.
func DetectRepo(ctx context.Context) (owner, repo string, err error) {
	out, err := exec.CommandContext(ctx, "git", "remote", "get-url", "origin").Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(remote string) (owner, repo string, err error) {
	remote = strings.TrimSuffix(remote, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", remote)
}

// ParsePRRef accepts "123", "owner/repo#123" or a pull request URL.
func ParsePRRef(ref string) (owner, repo string, number int, err error) {
	if m := prURLRe.FindStringSubmatch(ref); m != nil {
		number, err = strconv.Atoi(m[3])
		return m[1], m[2], number, err
	}
	if before, num, ok := strings.Cut(ref, "#"); ok {
		o, r, ok := strings.Cut(before, "/")
		if !ok || o == "" || r == "" {
			return "", "", 0, fmt.Errorf("invalid pull request reference: %s", ref)
		}
		owner, repo, ref = o, r, num
	}
	number, err = strconv.Atoi(ref)
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("invalid pull request reference: %s", ref)
	}
	return owner, repo, number, nil
}

var prURLRe = regexp.MustCompile(`^https?://[^/]+/([^/]+)/([^/]+)/pull/(\d+)`)
