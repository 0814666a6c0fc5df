// Package client talks to the spreadsheet backend through the proxy
// boundary. The backend is eventually consistent: a read right after a
// write can come back as the write's acknowledgment instead of the row
// list, so list responses are classified per attempt and bad shapes are
// retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"britlab/timesheet-portal/internal/models"
	"britlab/timesheet-portal/internal/normalize"
	"britlab/timesheet-portal/internal/retry"

	"go.uber.org/zap"
)

// errStaleAck marks a list response that is actually a leftover write
// acknowledgment. Retryable: the backend usually settles within a beat.
var errStaleAck = errors.New("write acknowledgment received where a row list was expected")

// SheetClient performs list/create/delete operations against the
// spreadsheet web app.
type SheetClient struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	normalizer *normalize.Normalizer
	logger     *zap.Logger
}

// NewSheetClient creates a new sheet client. baseURL may point at the
// relay or directly at the deployed script; credentials are the relay's
// business, never this client's.
func NewSheetClient(baseURL string, policy retry.Policy, normalizer *normalize.Normalizer, logger *zap.Logger) *SheetClient {
	return &SheetClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		policy:     policy,
		normalizer: normalizer,
		logger:     logger,
	}
}

// IsConfigured reports whether a usable backend target is set. When it
// is not, reads return empty and writes fail, but nothing crashes.
func (c *SheetClient) IsConfigured() bool {
	return c.baseURL != "" && !strings.Contains(c.baseURL, "YOUR-URL")
}

// ListEntries fetches and normalizes all records. It never returns an
// error: after the retry budget is spent the absence of data is reported
// as an empty list so the caller can render a "no records" state.
func (c *SheetClient) ListEntries(ctx context.Context) []models.TimeLogRecord {
	if !c.IsConfigured() {
		c.logger.Warn("Sheet backend not configured, returning no records")
		return []models.TimeLogRecord{}
	}

	var records []models.TimeLogRecord
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		rows, err := c.fetchRows(ctx)
		if err != nil {
			return err
		}

		normalized := make([]models.TimeLogRecord, 0, len(rows))
		dropped := 0
		for _, row := range rows {
			if rec := c.normalizer.Normalize(row); rec != nil {
				normalized = append(normalized, *rec)
			} else {
				dropped++
			}
		}
		if dropped > 0 {
			c.logger.Debug("Dropped malformed rows", zap.Int("count", dropped))
		}
		records = normalized
		return nil
	})
	if err != nil {
		c.logger.Warn("List entries failed after retries", zap.Error(err))
		return []models.TimeLogRecord{}
	}
	return records
}

// SaveEntry submits a new record. One attempt only: retrying a write
// risks duplicate rows, which is worse than asking the user to resend.
// A failure does not prove the backend discarded the write; the ack may
// simply have been lost.
func (c *SheetClient) SaveEntry(ctx context.Context, entry models.TimeLogRecord) error {
	if !c.IsConfigured() {
		return fmt.Errorf("sheet backend not configured")
	}

	payload := saveEntryRequest{Action: "saveEntry", Entry: entry}
	single := retry.Policy{Attempts: 1, PerAttemptTimeout: c.policy.PerAttemptTimeout}
	return single.Do(ctx, func(ctx context.Context) error {
		return c.postAction(ctx, "saveEntry", payload)
	})
}

// DeleteEntry removes a record by id. The requester name is a hint for
// backend-side ownership checks; no authorization happens locally.
func (c *SheetClient) DeleteEntry(ctx context.Context, id, requesterName string) error {
	if !c.IsConfigured() {
		return fmt.Errorf("sheet backend not configured")
	}

	payload := deleteEntryRequest{Action: "deleteEntry", ID: id, RequesterName: requesterName}
	single := retry.Policy{Attempts: 1, PerAttemptTimeout: c.policy.PerAttemptTimeout}
	return single.Do(ctx, func(ctx context.Context) error {
		return c.postAction(ctx, "deleteEntry", payload)
	})
}

func (c *SheetClient) fetchRows(ctx context.Context) ([]map[string]any, error) {
	url := c.baseURL + "?action=getEntries"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}

	return decodeRowList(body)
}

// decodeRowList classifies a list response body. A structured array
// (possibly wrapped in one or two "data" envelopes) is the only success;
// a write-acknowledgment shape or anything else is a retryable failure.
func decodeRowList(body []byte) ([]map[string]any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	for i := 0; i < 2; i++ {
		obj, ok := payload.(map[string]any)
		if !ok {
			break
		}
		inner, ok := obj["data"]
		if !ok {
			break
		}
		payload = inner
	}

	switch v := payload.(type) {
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
		return rows, nil
	case map[string]any:
		if isWriteAck(v) {
			return nil, errStaleAck
		}
	}
	return nil, fmt.Errorf("unexpected response shape")
}

// isWriteAck reports whether an object looks like a saveEntry/deleteEntry
// acknowledgment: a success flag plus an identifier, no row array.
func isWriteAck(obj map[string]any) bool {
	_, hasOK := obj["ok"]
	_, hasSuccess := obj["success"]
	_, hasID := obj["id"]
	_, hasTS := obj["timestamp"]
	return (hasOK || hasSuccess) && (hasID || hasTS)
}

func (c *SheetClient) postAction(ctx context.Context, action string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("Backend request failed",
			zap.String("action", action),
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Backend error",
			zap.String("action", action),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)),
		)
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}

	var ack ackResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		// The script answers some writes with plain text; an HTTP-level
		// success without structured data still counts as acknowledged.
		c.logger.Info("Backend acknowledged (unstructured body)",
			zap.String("action", action),
			zap.Duration("duration", duration),
		)
		return nil
	}
	if ack.Error != "" {
		return fmt.Errorf("backend rejected %s: %s", action, ack.Error)
	}
	if ack.OK != nil && !*ack.OK {
		return fmt.Errorf("backend reported failure for %s", action)
	}

	c.logger.Info("Backend acknowledged",
		zap.String("action", action),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	return nil
}

type saveEntryRequest struct {
	Action string               `json:"action"`
	Entry  models.TimeLogRecord `json:"entry"`
}

type deleteEntryRequest struct {
	Action        string `json:"action"`
	ID            string `json:"id"`
	RequesterName string `json:"requesterName,omitempty"`
}

type ackResponse struct {
	OK        *bool  `json:"ok"`
	ID        any    `json:"id"`
	Timestamp any    `json:"timestamp"`
	Error     string `json:"error"`
}
