// Package agent talks to the conversational backend over its HTTP contract:
// multipart utterance uploads in, JSON replies and audio clips out.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/attribute"

	"github.com/parleyvoice/parley-core/core/audio"
)

// Multipart field name the backend expects the utterance under.
const audioFieldName = "audio_file"

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a client for the backend at baseURL. The URL must be
// absolute so relative audio refs in replies can be resolved against it.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse backend url %s: %w", baseURL, err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("backend url %s is not absolute", baseURL)
	}

	client := &Client{baseURL: parsed, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{
			Timeout:   client.timeout,
			Transport: otelTransport(),
		}
	}
	return client, nil
}

// ChatTurn submits one captured utterance and returns the backend's reply.
// Non-2xx replies surface as a StatusError.
func (c *Client) ChatTurn(ctx context.Context, sessionID string, utterance audio.Utterance) (*Response, error) {
	ctx, span := tracer.Start(ctx, "submit utterance")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.session_id", sessionID),
		attribute.Int("request.utterance_bytes", len(utterance.Data)),
	)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(audioFieldName, utteranceFilename(utterance))
	if err != nil {
		err = fmt.Errorf("error building multipart body: %w", err)
		span.RecordError(err)
		return nil, err
	}
	if _, err := part.Write(utterance.Data); err != nil {
		err = fmt.Errorf("error writing utterance data: %w", err)
		span.RecordError(err)
		return nil, err
	}
	if err := writer.Close(); err != nil {
		err = fmt.Errorf("error finalizing multipart body: %w", err)
		span.RecordError(err)
		return nil, err
	}

	endpoint := c.baseURL.JoinPath("agent", "chat", sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	span.SetAttributes(attribute.String("request.url", req.URL.String()))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading response body: %w", err)
		span.RecordError(err)
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		span.SetAttributes(attribute.String("response.error", string(responseBody)))
		statusErr := newStatusError(resp.StatusCode, responseBody)
		span.RecordError(statusErr)
		return nil, statusErr
	}

	var wire wireChatResponse
	if err := json.Unmarshal(responseBody, &wire); err != nil {
		err = fmt.Errorf("error unmarshalling JSON: %w", err)
		span.RecordError(err)
		return nil, err
	}

	var response Response
	if err := copier.Copy(&response, &wire); err != nil {
		err = fmt.Errorf("error mapping response: %w", err)
		span.RecordError(err)
		return nil, err
	}

	logger.DebugContext(ctx, "Chat turn submitted",
		"status_code", resp.StatusCode,
		"has_transcription", response.Transcription != nil,
		"has_audio", response.AudioURL != nil,
	)
	return &response, nil
}

// FetchAudio downloads the clip a reply points at and returns its bytes and
// content type. Relative refs are resolved against the backend base URL.
func (c *Client) FetchAudio(ctx context.Context, ref string) ([]byte, string, error) {
	ctx, span := tracer.Start(ctx, "fetch reply audio")
	defer span.End()
	span.SetAttributes(attribute.String("request.audio_ref", ref))

	parsed, err := url.Parse(ref)
	if err != nil {
		err = fmt.Errorf("failed to parse audio ref %s: %w", ref, err)
		span.RecordError(err)
		return nil, "", err
	}
	endpoint := c.baseURL.ResolveReference(parsed)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		return nil, "", err
	}

	span.SetAttributes(attribute.String("request.url", req.URL.String()))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return nil, "", err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading audio body: %w", err)
		span.RecordError(err)
		return nil, "", err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := newStatusError(resp.StatusCode, body)
		span.RecordError(statusErr)
		return nil, "", statusErr
	}

	span.SetAttributes(attribute.Int("response.audio_bytes", len(body)))
	return body, resp.Header.Get("Content-Type"), nil
}

// History fetches the stored conversation for a session, oldest entry first.
func (c *Client) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	ctx, span := tracer.Start(ctx, "fetch history")
	defer span.End()
	span.SetAttributes(attribute.String("request.session_id", sessionID))

	endpoint := c.baseURL.JoinPath("chat", "history", sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading response body: %w", err)
		span.RecordError(err)
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := newStatusError(resp.StatusCode, body)
		span.RecordError(statusErr)
		return nil, statusErr
	}

	var wire wireHistoryResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		err = fmt.Errorf("error unmarshalling JSON: %w", err)
		span.RecordError(err)
		return nil, err
	}

	var entries []HistoryEntry
	if err := copier.Copy(&entries, wire.History); err != nil {
		err = fmt.Errorf("error mapping history: %w", err)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("response.history_entries", len(entries)))
	return entries, nil
}

func utteranceFilename(utterance audio.Utterance) string {
	return fmt.Sprintf("utterance_%d.%s", time.Now().UnixMilli(), utterance.FileExt())
}
