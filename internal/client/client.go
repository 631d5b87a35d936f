// Package client talks to the pdfmark REST API on behalf of a Session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Code, e.Message, e.Status)
}

// Client is safe for concurrent use; per-user state lives in Session.
type Client struct {
	http *http.Client
}

func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{http: httpClient}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

func jsonRequest(method, path string, v any) (request, error) {
	r := request{method: method, path: path}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return r, err
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

func (c *Client) send(ctx context.Context, baseURL, accessToken string, r request) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, strings.TrimRight(baseURL, "/")+r.path, body)
	if err != nil {
		return nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return c.http.Do(req)
}

// authed sends r with the session's access token. A 401 triggers one
// refresh and one retry.
func (c *Client) authed(ctx context.Context, s *Session, r request) (*http.Response, error) {
	resp, err := c.send(ctx, s.BaseURL, s.AccessToken, r)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || s.RefreshToken == "" {
		return resp, nil
	}
	drain(resp)

	if err := c.Refresh(ctx, s); err != nil {
		return nil, err
	}
	return c.send(ctx, s.BaseURL, s.AccessToken, r)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// decode unwraps the response envelope into out.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (c *Client) Register(ctx context.Context, baseURL string, in RegisterRequest) (*User, error) {
	r, err := jsonRequest(http.MethodPost, "/api/register", in)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, baseURL, "", r)
	if err != nil {
		return nil, err
	}
	var out struct {
		User User `json:"user"`
	}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login returns a fresh Session for baseURL.
func (c *Client) Login(ctx context.Context, baseURL, username, password string) (*Session, error) {
	r, err := jsonRequest(http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, baseURL, "", r)
	if err != nil {
		return nil, err
	}
	var out struct {
		User   User      `json:"user"`
		Tokens tokenPair `json:"tokens"`
	}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	s := &Session{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		AccessToken:  out.Tokens.AccessToken,
		RefreshToken: out.Tokens.RefreshToken,
	}
	s.Identity.UserID = out.User.ID
	s.Identity.Username = out.User.Username
	s.Identity.Role = out.User.Role
	return s, nil
}

// Refresh rotates the session's tokens in place.
func (c *Client) Refresh(ctx context.Context, s *Session) error {
	r, err := jsonRequest(http.MethodPost, "/api/refresh", map[string]string{"refresh_token": s.RefreshToken})
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, s.BaseURL, "", r)
	if err != nil {
		return err
	}
	var out struct {
		Tokens tokenPair `json:"tokens"`
	}
	if err := decode(resp, &out); err != nil {
		return err
	}
	s.AccessToken = out.Tokens.AccessToken
	s.RefreshToken = out.Tokens.RefreshToken
	return nil
}

func (c *Client) Logout(ctx context.Context, s *Session) error {
	r, err := jsonRequest(http.MethodPost, "/api/logout", map[string]string{"refresh_token": s.RefreshToken})
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, s.BaseURL, "", r)
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

func (c *Client) Me(ctx context.Context, s *Session) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.getJSON(ctx, s, "/api/me", &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Dashboard(ctx context.Context, s *Session) (*Dashboard, error) {
	var out Dashboard
	if err := c.getJSON(ctx, s, "/api/dashboard", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Upload(ctx context.Context, s *Session, filename string, data []byte) (*File, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	resp, err := c.authed(ctx, s, request{
		method:      http.MethodPost,
		path:        "/api/files",
		body:        buf.Bytes(),
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		File File `json:"file"`
	}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out.File, nil
}

func (c *Client) ListFiles(ctx context.Context, s *Session) ([]File, error) {
	return c.listFiles(ctx, s, "/api/files")
}

func (c *Client) ListEditedFiles(ctx context.Context, s *Session) ([]File, error) {
	return c.listFiles(ctx, s, "/api/files/edited")
}

func (c *Client) AdminListAll(ctx context.Context, s *Session) ([]File, error) {
	return c.listFiles(ctx, s, "/api/admin/files")
}

func (c *Client) AdminListEdited(ctx context.Context, s *Session) ([]File, error) {
	return c.listFiles(ctx, s, "/api/admin/files/edited")
}

func (c *Client) GetFile(ctx context.Context, s *Session, id int64) (*File, error) {
	var out struct {
		File File `json:"file"`
	}
	if err := c.getJSON(ctx, s, "/api/files/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return &out.File, nil
}

// DownloadRaw returns the original bytes, or the edited ones when edited is set.
func (c *Client) DownloadRaw(ctx context.Context, s *Session, id int64, edited bool) ([]byte, error) {
	path := "/api/files/" + strconv.FormatInt(id, 10) + "/raw"
	if edited {
		path = "/api/files/" + strconv.FormatInt(id, 10) + "/edited/raw"
	}
	resp, err := c.authed(ctx, s, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decode(resp, nil)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) Edit(ctx context.Context, s *Session, id int64, in EditRequest) (*File, error) {
	r, err := jsonRequest(http.MethodPost, "/api/files/"+strconv.FormatInt(id, 10)+"/edit", in)
	if err != nil {
		return nil, err
	}
	resp, err := c.authed(ctx, s, r)
	if err != nil {
		return nil, err
	}
	var out struct {
		File File `json:"file"`
	}
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out.File, nil
}

func (c *Client) listFiles(ctx context.Context, s *Session, path string) ([]File, error) {
	var out struct {
		Files []File `json:"files"`
	}
	if err := c.getJSON(ctx, s, path, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *Client) getJSON(ctx context.Context, s *Session, path string, out any) error {
	resp, err := c.authed(ctx, s, request{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	return decode(resp, out)
}
