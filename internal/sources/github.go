package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/Wikid82/nginxguard/internal/version"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// GitHubMetaURL publishes GitHub's service ranges.
	GitHubMetaURL = "https://api.github.com/meta"

	// maxMetaBytes caps the metadata document; the real one is well under 1 MiB.
	maxMetaBytes = 8 << 20
)

// GitHubMetaGroups are the meta document keys appended to the source set, in order.
var GitHubMetaGroups = []string{"hooks", "git"}

var (
	ErrUnexpectedStatus  = errors.New("unexpected status from provider")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrMissingGroup      = errors.New("provider response is missing a group")
)

// GitHubMeta fetches webhook and git ranges from GitHub's meta endpoint.
type GitHubMeta struct {
	apiURL string // For testing
	groups []string
	client *http.Client
	log    *logrus.Entry
}

func NewGitHubMeta(timeout time.Duration, log *logrus.Entry) *GitHubMeta {
	return &GitHubMeta{
		apiURL: GitHubMetaURL,
		groups: GitHubMetaGroups,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// SetAPIURL sets the meta URL for testing.
func (p *GitHubMeta) SetAPIURL(url string) {
	p.apiURL = url
}

func (p *GitHubMeta) Name() string { return "github" }

// Fetch performs a single unauthenticated GET and returns the configured groups concatenated.
func (p *GitHubMeta) Fetch(ctx context.Context) ([]string, error) {
	p.log.WithField("url", p.apiURL).Debug("Getting source ips from GitHub")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	var doc map[string]jsoniter.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetaBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var subnets []string
	for _, key := range p.groups {
		raw, ok := doc[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingGroup, key)
		}
		var group []string
		if err := json.Unmarshal(raw, &group); err != nil {
			return nil, fmt.Errorf("%w: group %q: %v", ErrMalformedResponse, key, err)
		}
		subnets = append(subnets, group...)
	}
	return subnets, nil
}
