// Package importer talks to the remote import service: the two-step
// JSON-to-workbook conversion and the two-phase preview/confirm protocol.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/annotlab/sheetmap/internal/mapping"
)

// ConvertResult is the service response to a JSON-to-workbook conversion.
type ConvertResult struct {
	ExcelUploadID string   `json:"excel_upload_id"`
	SheetName     string   `json:"sheet_name"`
	Columns       []string `json:"columns"`
	TotalRows     int      `json:"total_rows"`
	DownloadURL   string   `json:"download_url"`
	PreviewRows   [][]any  `json:"preview_rows"`
}

// PreviewIssue is one row-level problem reported by the service.
type PreviewIssue struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// PreviewRow is one normalized record echoed back by a preview call.
type PreviewRow struct {
	Row      int            `json:"row"`
	TaskID   string         `json:"task_id"`
	TaskName string         `json:"task_name"`
	FileName string         `json:"file_name"`
	Payload  map[string]any `json:"payload"`
}

// PreviewRequest is the body of a preview call.
type PreviewRequest struct {
	ProjectID     int              `json:"project_id"`
	MappingConfig *mapping.Config  `json:"mapping_config,omitempty"`
	Rows          []map[string]any `json:"rows"`
	Limit         int              `json:"limit,omitempty"`
}

// PreviewResponse is the service response to a preview call.
type PreviewResponse struct {
	PreviewRows      []PreviewRow    `json:"preview_rows"`
	Issues           []PreviewIssue  `json:"issues"`
	Columns          []string        `json:"columns"`
	TotalRows        int             `json:"total_rows"`
	SuggestedMapping *mapping.Config `json:"suggested_mapping,omitempty"`
	SheetName        string          `json:"sheet_name,omitempty"`
}

// ConfirmRequest is the body of a confirm call.
type ConfirmRequest struct {
	ProjectID          int              `json:"project_id"`
	FinalMappingConfig *mapping.Config  `json:"final_mapping_config"`
	Rows               []map[string]any `json:"rows"`
	ExcelUploadID      string           `json:"excel_upload_id,omitempty"`
}

// ConfirmResponse is the service response to a confirm call.
type ConfirmResponse struct {
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Errors   []PreviewIssue `json:"errors"`
}

// Client is a thin HTTP client for the import service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL. token, when
// non-empty, is sent as a bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: 2 * time.Minute, // conversions of large uploads can take a while
		},
	}
}

// ConvertJSON uploads raw JSON bytes for conversion into a workbook. The
// records path tells the service where the record array lives inside the
// document ("$" for the root).
func (c *Client) ConvertJSON(ctx context.Context, filename string, contents []byte, recordsPath, sheetName string) (*ConvertResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(contents); err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if recordsPath == "" {
		recordsPath = "$"
	}
	if err := w.WriteField("records_path", recordsPath); err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if sheetName != "" {
		if err := w.WriteField("sheet_name", sheetName); err != nil {
			return nil, fmt.Errorf("building upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/imports/json-to-excel", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result ConvertResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadWorkbook fetches the converted workbook bytes for an upload id.
func (c *Client) DownloadWorkbook(ctx context.Context, uploadID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/imports/downloads/"+uploadID, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s", ExtractErrorMessage(data, FallbackErrorMessage))
	}
	return data, nil
}

// Preview submits rows (and optionally a mapping config) for a dry-run pass.
func (c *Client) Preview(ctx context.Context, reqBody PreviewRequest) (*PreviewResponse, error) {
	var result PreviewResponse
	if err := c.postJSON(ctx, "/imports/preview", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Confirm submits the final mapping plus rows for insertion.
func (c *Client) Confirm(ctx context.Context, reqBody ConfirmRequest) (*ConfirmResponse, error) {
	var result ConfirmResponse
	if err := c.postJSON(ctx, "/imports/confirm", reqBody, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s", ExtractErrorMessage(body, FallbackErrorMessage))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s", FallbackErrorMessage)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
