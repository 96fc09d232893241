package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/kiranshivaraju/clarus/pkg/models"
)

// JobErrorHeader carries a soft, job-level error alongside a normal job response.
const JobErrorHeader = "X-Job-Error"

// maxErrorBody bounds how much of a failed response is read as the error message.
const maxErrorBody = 64 << 10

// Client is the interface for the Clarus backend HTTP API.
type Client interface {
	Register(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*models.Token, error)
	Subscription(ctx context.Context) (*models.SubscriptionStatus, error)
	Renew(ctx context.Context, planCode string) (*models.Renewal, error)
	Upload(ctx context.Context, filename string, file io.Reader) (*models.Job, error)
	GetJob(ctx context.Context, jobID string) (*models.JobResult, error)
	ListJobs(ctx context.Context, opts ListOptions) ([]models.Job, error)
	Download(ctx context.Context, jobID string) (*Download, error)
}

// TokenSource supplies the bearer token attached to authenticated calls.
// An empty token sends the request without an Authorization header.
type TokenSource interface {
	Token() string
}

// ListOptions pages through the job history.
type ListOptions struct {
	Limit  int `url:"limit"`
	Offset int `url:"offset"`
}

// HTTPClient implements Client over the backend's REST API.
type HTTPClient struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
}

// NewHTTPClient creates a new backend client. tokens may be nil for
// unauthenticated use.
func NewHTTPClient(baseURL string, tokens TokenSource, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Register(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return fmt.Errorf("encoding register request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, "Register")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Token, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var token models.Token
	if err := c.doJSON(req, "Login", &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *HTTPClient) Subscription(ctx context.Context) (*models.SubscriptionStatus, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/billing/subscription", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var status models.SubscriptionStatus
	if err := c.doJSON(req, "Subscription status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *HTTPClient) Renew(ctx context.Context, planCode string) (*models.Renewal, error) {
	if planCode == "" {
		planCode = models.DefaultPlanCode
	}
	body, err := json.Marshal(map[string]string{"plan_code": planCode})
	if err != nil {
		return nil, fmt.Errorf("encoding renew request: %w", err)
	}

	req, err := c.newAuthedRequest(ctx, http.MethodPost, "/billing/renew", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var renewal models.Renewal
	if err := c.doJSON(req, "Renew", &renewal); err != nil {
		return nil, err
	}
	return &renewal, nil
}

// Upload sends file as the multipart field csv_file. The body is streamed
// through a pipe so large CSVs are not buffered in memory.
func (c *HTTPClient) Upload(ctx context.Context, filename string, file io.Reader) (*models.Job, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("csv_file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := c.newAuthedRequest(ctx, http.MethodPost, "/predictions/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var job models.Job
	err = c.doJSON(req, "Upload", &job)
	pr.Close()
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJob fetches one job snapshot. The X-Job-Error header, when present on a
// successful response, is returned as JobResult.JobError.
func (c *HTTPClient) GetJob(ctx context.Context, jobID string) (*models.JobResult, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/predictions/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, "Get job")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var job models.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("decoding job response: %w", err)
	}

	return &models.JobResult{Job: job, JobError: resp.Header.Get(JobErrorHeader)}, nil
}

func (c *HTTPClient) ListJobs(ctx context.Context, opts ListOptions) ([]models.Job, error) {
	params, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("encoding list options: %w", err)
	}

	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/predictions/jobs?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var jobs []models.Job
	if err := c.doJSON(req, "List jobs", &jobs); err != nil {
		return nil, err
	}
	if jobs == nil {
		return []models.Job{}, nil
	}
	return jobs, nil
}

// Download opens the scored CSV for jobID. The caller must close the
// returned Download.
func (c *HTTPClient) Download(ctx context.Context, jobID string) (*Download, error) {
	req, err := c.newAuthedRequest(ctx, http.MethodGet, "/predictions/"+url.PathEscape(jobID)+"/download", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, "Download")
	if err != nil {
		return nil, err
	}

	filename, ok := FilenameFromContentDisposition(resp.Header.Get("Content-Disposition"))
	if !ok {
		filename = DefaultDownloadName(jobID)
	}

	return &Download{
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	return req, nil
}

func (c *HTTPClient) newAuthedRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if c.tokens != nil {
		if t := c.tokens.Token(); t != "" {
			req.Header.Set("Authorization", "Bearer "+t)
		}
	}
	return req, nil
}

// do executes req and turns non-2xx responses into *APIError. On success the
// caller owns resp.Body.
func (c *HTTPClient) do(req *http.Request, op string) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

func (c *HTTPClient) doJSON(req *http.Request, op string, v any) error {
	resp, err := c.do(req, op)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", strings.ToLower(op), err)
	}
	return nil
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
