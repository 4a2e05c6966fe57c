package hub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hugeolab/hubsync/internal/logging"
	"github.com/hugeolab/hubsync/internal/utils"
)

// Client implements Store against the hub REST API.
type Client struct {
	endpoint   string
	branch     string
	token      string
	httpClient *http.Client
	logger     logging.Logger
}

// ClientConfig configures a hub client.
type ClientConfig struct {
	Endpoint string
	Branch   string
	Token    string
	Timeout  time.Duration
	Logger   logging.Logger
}

// NewClient creates a hub client.
func NewClient(config ClientConfig) *Client {
	if config.Endpoint == "" {
		config.Endpoint = utils.DefaultHubEndpoint
	}
	if config.Branch == "" {
		config.Branch = utils.DefaultHubBranch
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Minute
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Client{
		endpoint:   strings.TrimRight(config.Endpoint, "/"),
		branch:     config.Branch,
		token:      config.Token,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// treeEntry is one record of the repository tree listing.
type treeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ListPaths walks the repository tree via the paginated tree endpoint.
func (c *Client) ListPaths(ctx context.Context, repo string) (map[string]struct{}, error) {
	paths := make(map[string]struct{})

	next := fmt.Sprintf("%s/api/datasets/%s/tree/%s?recursive=true",
		c.endpoint, repo, url.PathEscape(c.branch))

	for next != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, c.wrapNetworkError("list repository tree", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, c.wrapNetworkError("read tree response", readErr)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, c.statusError("list repository tree", resp.StatusCode, body)
		}

		var entries []treeEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("invalid tree response for %s: %w", repo, err)
		}
		for _, entry := range entries {
			if entry.Type == "file" {
				paths[entry.Path] = struct{}{}
			}
		}

		next = nextPageURL(resp.Header.Get("Link"))
	}

	c.logger.Debug("Listed remote paths", logging.F("repo", repo), logging.F("count", len(paths)))
	return paths, nil
}

// commitRecord is one NDJSON line of a commit request.
type commitRecord struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

type commitHeader struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

type commitFilePayload struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
}

// CommitFiles creates one atomic commit with all given files. The request
// body is NDJSON: a header record followed by one base64 file record per
// file.
func (c *Client) CommitFiles(ctx context.Context, repo string, files []CommitFile, message string) error {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)

	if err := enc.Encode(commitRecord{Key: "header", Value: commitHeader{Summary: message}}); err != nil {
		return err
	}
	for _, file := range files {
		data, err := os.ReadFile(file.Source)
		if err != nil {
			return utils.NewAppError(utils.NewCLIError(utils.ErrCodeNotFound,
				fmt.Sprintf("cannot read %s: %v", file.Source, err)).Build())
		}
		payload := commitFilePayload{
			Content:  base64.StdEncoding.EncodeToString(data),
			Path:     file.Path,
			Encoding: "base64",
		}
		if err := enc.Encode(commitRecord{Key: "file", Value: payload}); err != nil {
			return err
		}
	}

	endpoint := fmt.Sprintf("%s/api/datasets/%s/commit/%s",
		c.endpoint, repo, url.PathEscape(c.branch))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.wrapNetworkError("commit files", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return c.statusError("commit files", resp.StatusCode, respBody)
	}

	c.logger.Debug("Committed files to hub",
		logging.F("repo", repo),
		logging.F("files", len(files)),
	)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) wrapNetworkError(op string, err error) error {
	return utils.NewAppError(utils.NewCLIError(utils.ErrCodeNetworkError,
		fmt.Sprintf("%s: %v", op, err)).WithRetryable(true).Build())
}

func (c *Client) statusError(op string, status int, body []byte) error {
	msg := fmt.Sprintf("%s: hub returned %d", op, status)
	if summary := errorSummary(body); summary != "" {
		msg = fmt.Sprintf("%s: %s", msg, summary)
	}

	builder := utils.NewCLIError(utils.ErrCodeNetworkError, msg).WithHTTPStatus(status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		builder = utils.NewCLIError(utils.ErrCodeAuthRequired, msg).WithHTTPStatus(status)
	case status == http.StatusTooManyRequests || status >= 500:
		builder = builder.WithRetryable(true)
	}
	return utils.NewAppError(builder.Build())
}

// errorSummary pulls the error field from a hub error body, if present.
func errorSummary(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	return parsed.Error
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr.CLIError.Retryable
	}
	return false
}

// nextPageURL parses the RFC 5988 Link header used for tree pagination.
func nextPageURL(header string) string {
	for _, part := range strings.Split(header, ",") {
		section := strings.Split(strings.TrimSpace(part), ";")
		if len(section) < 2 {
			continue
		}
		if strings.TrimSpace(section[1]) == `rel="next"` {
			return strings.Trim(strings.TrimSpace(section[0]), "<>")
		}
	}
	return ""
}

var _ Store = (*Client)(nil)
