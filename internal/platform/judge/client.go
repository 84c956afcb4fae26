// Package judge talks to a Judge0-compatible execution service.
package judge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/domain/model"
)

const pollFields = "stdout,stderr,compile_output,status,time,memory"

type SubmitRequest struct {
	Source         string
	Stdin          string
	ExpectedOutput string
	LanguageID     int
}

type Result struct {
	StatusID      int
	Description   string
	Status        model.SubmissionStatus
	TimeSeconds   *float64
	MemoryKb      *int
	Stdout        *string
	Stderr        *string
	CompileOutput *string
}

type Client struct {
	baseURL    string
	apiKeys    []string
	httpClient *http.Client
}

func NewClient(baseURL string, apiKeys []string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKeys:    apiKeys,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type submitPayload struct {
	SourceCode     string `json:"source_code"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
	LanguageID     int    `json:"language_id"`
}

type submitResponse struct {
	Token string `json:"token"`
}

// Submit sends source for grading and returns the judge token.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	payload := submitPayload{
		SourceCode:     base64.StdEncoding.EncodeToString([]byte(req.Source)),
		Stdin:          base64.StdEncoding.EncodeToString([]byte(req.Stdin)),
		ExpectedOutput: base64.StdEncoding.EncodeToString([]byte(req.ExpectedOutput)),
		LanguageID:     req.LanguageID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal judge submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/submissions?base64_encoded=true", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create judge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	respBody, status, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", common.Errorf("judge submit returned status %d: %s: %w", status, truncate(respBody), common.ErrGateway)
	}

	var out submitResponse
	if err := json.Unmarshal(respBody, &out); err != nil || out.Token == "" {
		return "", common.Errorf("judge submit returned no token: %w", common.ErrGateway)
	}
	return out.Token, nil
}

type pollResponse struct {
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Poll fetches the latest grading state for token.
func (c *Client) Poll(ctx context.Context, token string) (*Result, error) {
	u := c.baseURL + "/submissions/" + url.PathEscape(token) + "?base64_encoded=true&fields=" + pollFields
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create judge request: %w", err)
	}
	c.authorize(httpReq)

	respBody, status, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, common.Errorf("judge poll returned status %d: %s: %w", status, truncate(respBody), common.ErrGateway)
	}

	var pr pollResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return nil, common.Errorf("judge poll returned malformed body: %v: %w", err, common.ErrGateway)
	}

	res := &Result{
		StatusID:      pr.Status.ID,
		Description:   pr.Status.Description,
		Status:        MapStatus(pr.Status.ID, pr.Status.Description),
		MemoryKb:      pr.Memory,
		Stdout:        decodeField(pr.Stdout),
		Stderr:        decodeField(pr.Stderr),
		CompileOutput: decodeField(pr.CompileOutput),
	}
	if pr.Time != nil && *pr.Time != "" {
		if t, err := strconv.ParseFloat(*pr.Time, 64); err == nil {
			res.TimeSeconds = &t
		}
	}
	return res, nil
}

func (c *Client) authorize(r *http.Request) {
	if len(c.apiKeys) == 0 {
		return
	}
	r.Header.Set("Authorization", "Bearer "+c.apiKeys[rand.Intn(len(c.apiKeys))])
}

func (c *Client) do(r *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(r)
	if err != nil {
		return nil, 0, common.Errorf("judge request %s %s: %v: %w", r.Method, r.URL.Path, err, common.ErrGateway)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, common.Errorf("judge response read: %v: %w", err, common.ErrGateway)
	}
	return body, resp.StatusCode, nil
}

// decodeField base64-decodes a judge output field, keeping the raw value if it is not base64.
func decodeField(v *string) *string {
	if v == nil {
		return nil
	}
	raw := strings.ReplaceAll(*v, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return v
	}
	s := string(decoded)
	return &s
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
