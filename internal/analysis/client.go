package analysis

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resumeflow/internal/schemas"
)

// DefaultBaseURL is where a locally running analysis service listens.
const DefaultBaseURL = "http://127.0.0.1:5000/api"

// DefaultUserAgent is the user agent string for collaborator requests.
const DefaultUserAgent = "resumeflow/1.0"

// Collaborator endpoints, relative to the base URL.
const (
	endpointRoles     = "jd_options"
	endpointDefaultJD = "jd_default"
	endpointJDText    = "jd_text"
	endpointParse     = "parse_resume"
	endpointTable     = "generate_resume_table"
	endpointCheck     = "resume_check"
	endpointJDMatch   = "jd_match"
	endpointQA        = "generate_questions"
	endpointFitScore  = "fit_score"
	endpointConfirm   = "confirm_document"
	endpointList      = "get_saved_resumes"
	endpointDetail    = "get_interview_qa"
	endpointDownload  = "download_resume"
	endpointClearAll  = "clear_all_data"
)

var analysisEndpoints = map[Kind]string{
	KindTable:    endpointTable,
	KindCheck:    endpointCheck,
	KindJDMatch:  endpointJDMatch,
	KindQA:       endpointQA,
	KindFitScore: endpointFitScore,
}

// Options configures the client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration // zero means no timeout
	UserAgent string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the analysis service over HTTP.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	log       *zap.Logger
}

var _ Service = (*Client)(nil)

// New creates a client for the service at opts.BaseURL.
func New(opts Options, log *zap.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: opts.UserAgent,
		log:       log.Named("analysis"),
	}, nil
}

// Roles returns the catalog of job description roles.
func (c *Client) Roles(ctx context.Context) ([]string, error) {
	var roles []string
	if err := c.doJSON(ctx, http.MethodGet, endpointRoles, nil, schemas.RoleList, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// DefaultJD returns the job description shown before any role is chosen.
func (c *Client) DefaultJD(ctx context.Context) (string, error) {
	var text string
	err := c.doJSON(ctx, http.MethodGet, endpointDefaultJD, nil, schemas.Text, &text)
	return text, err
}

// JDText returns the canonical job description for a catalog role.
func (c *Client) JDText(ctx context.Context, role string) (string, error) {
	var text string
	err := c.doJSON(ctx, http.MethodPost, endpointJDText, map[string]string{"role": role}, schemas.Text, &text)
	return text, err
}

// Parse uploads a resume file and returns the collaborator's reading of it.
func (c *Client) Parse(ctx context.Context, filename string, r io.Reader) (*ParseResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("resume", filename)
	if err != nil {
		return nil, &TransportError{Endpoint: endpointParse, Message: "failed to build upload", Cause: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &TransportError{Endpoint: endpointParse, Message: "failed to read resume file", Cause: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &TransportError{Endpoint: endpointParse, Message: "failed to build upload", Cause: err}
	}

	body, err := c.send(ctx, http.MethodPost, endpointParse, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	var result ParseResult
	if err := decode(endpointParse, body, schemas.ParseResponse, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Analyze runs one analysis kind and returns its free text.
func (c *Client) Analyze(ctx context.Context, kind Kind, req AnalysisRequest) (string, error) {
	endpoint, ok := analysisEndpoints[kind]
	if !ok {
		return "", fmt.Errorf("unknown analysis kind %q", kind)
	}

	var payload map[string]string
	switch kind {
	case KindTable:
		payload = map[string]string{"resume_text_cache": req.CanonicalText}
	case KindCheck:
		payload = map[string]string{"resume_text": req.CanonicalText}
	default:
		payload = map[string]string{"resume_text": req.CanonicalText, "jd_text": req.JDText}
	}

	var out struct {
		Output string `json:"output"`
	}
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, schemas.OutputResponse, &out); err != nil {
		return "", err
	}
	return out.Output, nil
}

// Confirm persists a document snapshot.
func (c *Client) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmReceipt, error) {
	var receipt ConfirmReceipt
	if err := c.doJSON(ctx, http.MethodPost, endpointConfirm, req, "", &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListSaved returns saved records filtered and ordered by the server.
func (c *Client) ListSaved(ctx context.Context, q ListQuery) ([]SavedRecord, error) {
	params := url.Values{}
	params.Set("role", q.Filter)
	params.Set("sort_key", string(q.SortKey))
	params.Set("sort_order", string(q.SortOrder))

	var records []SavedRecord
	if err := c.doJSON(ctx, http.MethodGet, endpointList+"?"+params.Encode(), nil, schemas.SavedRecords, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []SavedRecord{}
	}
	return records, nil
}

// Detail returns the interview Q&A stored under detailSourceID.
func (c *Client) Detail(ctx context.Context, detailSourceID string) (string, error) {
	var out struct {
		Content string `json:"qa_content"`
	}
	endpoint := endpointDetail + "/" + url.PathEscape(detailSourceID)
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, schemas.DetailResponse, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// Download streams a saved resume file into w.
func (c *Client) Download(ctx context.Context, filename string, w io.Writer) (int64, error) {
	endpoint := endpointDownload + "/" + url.PathEscape(filename)
	resp, err := c.request(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &TransportError{
			Endpoint: endpointDownload,
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &TransportError{Endpoint: endpointDownload, Status: resp.StatusCode, Message: "download interrupted", Cause: err}
	}
	return n, nil
}

// ClearAll deletes every saved record on the server.
func (c *Client) ClearAll(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, endpointClearAll, nil, "", nil)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, in any, schema schemas.Schema, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", endpointName(endpoint), err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	respBody, err := c.send(ctx, method, endpoint, body, contentType)
	if err != nil {
		return err
	}
	return decode(endpointName(endpoint), respBody, schema, out)
}

// send performs the request and classifies the status. The returned body belongs to a 2xx response.
func (c *Client) send(ctx context.Context, method, endpoint string, body io.Reader, contentType string) ([]byte, error) {
	name := endpointName(endpoint)
	resp, err := c.request(ctx, method, endpoint, body, contentType)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: name, Status: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	if reason := errorPayload(raw); reason != "" {
		return nil, &RejectionError{Endpoint: name, Status: resp.StatusCode, Message: reason}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Endpoint: name, Status: resp.StatusCode, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	return raw, nil
}

func (c *Client) request(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	name := endpointName(endpoint)
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, &TransportError{Endpoint: name, Message: "invalid endpoint", Cause: err}
	}
	target := c.baseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, &TransportError{Endpoint: name, Message: "failed to create request", Cause: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.log.Debug("collaborator request",
		zap.String("method", method),
		zap.String("endpoint", name),
		zap.String("request_id", requestID),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: name, Message: "HTTP request failed", Cause: err}
	}
	return resp, nil
}

func decode(endpoint string, raw []byte, schema schemas.Schema, out any) error {
	if schema != "" {
		if err := schemas.Validate(schema, raw); err != nil {
			return &TransportError{Endpoint: endpoint, Status: http.StatusOK, Message: "malformed response", Cause: err}
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Endpoint: endpoint, Status: http.StatusOK, Message: "malformed response", Cause: err}
	}
	return nil
}

// errorPayload extracts the reason from an {"error": "..."} body.
func errorPayload(raw []byte) string {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Error
}

func endpointName(endpoint string) string {
	if i := strings.IndexAny(endpoint, "?/"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
