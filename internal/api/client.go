// Package api is the REST collaborator client: agents, models, document
// upload and the authentication flows. Responses are consumed as-is; the
// server owns their semantics.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Agent is a selectable assistant persona.
type Agent struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SystemPrompt string `json:"systemPrompt"`
	Description  string `json:"description"`
}

// Model is a selectable LLM backend.
type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// AuthResult is the common shape of all auth endpoints.
type AuthResult struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId,omitempty"`
	Message string `json:"message,omitempty"`
}

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		BaseURL:    baseURL,
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api: GET %s status=%d body=%s", path, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api: POST %s status=%d body=%s", path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListAgents fetches the available assistant personas.
func (c *Client) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := c.getJSON(ctx, "/api/agents", &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// ListModels fetches the available LLM backends.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	var models []Model
	if err := c.getJSON(ctx, "/api/models", &models); err != nil {
		return nil, err
	}
	return models, nil
}

// UploadDocument uploads a file for retrieval and returns its document id.
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/rag/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("api: upload status=%d body=%s", resp.StatusCode, string(b))
	}
	var out struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.DocumentID == "" {
		return "", fmt.Errorf("api: upload returned empty document id")
	}
	return out.DocumentID, nil
}

// AttachDocument associates an uploaded document with a chat session.
func (c *Client) AttachDocument(ctx context.Context, sessionID, documentID string) error {
	in := map[string]string{"documentId": documentID}
	return c.postJSON(ctx, "/api/chat/session/"+sessionID+"/document", in, nil)
}

// RequestSMSCode asks the server to send a login code to the phone number.
func (c *Client) RequestSMSCode(ctx context.Context, phone string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, "/api/auth/request-sms-code", map[string]string{"phone": phone}, &out)
	return out, err
}

// VerifySMSCode checks the code the user received by SMS.
func (c *Client) VerifySMSCode(ctx context.Context, phone, code string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, "/api/auth/verify-sms-code", map[string]string{"phone": phone, "code": code}, &out)
	return out, err
}

// RequestEmailCode asks the server to send a login code to the address.
func (c *Client) RequestEmailCode(ctx context.Context, email string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, "/api/auth/request-email-code", map[string]string{"email": email}, &out)
	return out, err
}

// VerifyEmailCode checks the code the user received by email.
func (c *Client) VerifyEmailCode(ctx context.Context, email, code string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, "/api/auth/verify-email-code", map[string]string{"email": email, "code": code}, &out)
	return out, err
}

// LoginTelegram performs the direct third-party login.
func (c *Client) LoginTelegram(ctx context.Context, username string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, "/api/auth/login-telegram", map[string]string{"username": username}, &out)
	return out, err
}
