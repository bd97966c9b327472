package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"workpulse/pkg/logger"
	"workpulse/pkg/store/rdb/model"
)

// FeishuNotifier sends notifications to Feishu (Lark)
type FeishuNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewFeishuNotifier creates a new Feishu notifier. An empty URL disables sending.
func NewFeishuNotifier(webhookURL string) *FeishuNotifier {
	if webhookURL == "" {
		logger.Warn("Feishu webhook URL not configured (check config file or FEISHU_WEBHOOK_URL env), scan failure alerts will be disabled")
	}
	return &FeishuNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifyScanFailure sends an alert card for an aborted productivity scan
func (f *FeishuNotifier) NotifyScanFailure(ctx context.Context, run *model.ScanRun) error {
	if f.webhookURL == "" {
		logger.WarnCtx(ctx, "Feishu webhook URL not configured, skipping notification")
		return nil
	}

	payload, err := json.Marshal(buildScanFailureMessage(run))
	if err != nil {
		return fmt.Errorf("failed to marshal Feishu message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Feishu notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Feishu API returned status code: %d", resp.StatusCode)
	}

	logger.InfoCtx(ctx, "Feishu scan failure notification sent for run %s", run.ID)
	return nil
}

func buildScanFailureMessage(run *model.ScanRun) map[string]interface{} {
	finished := "-"
	if run.FinishedAt != nil {
		finished = run.FinishedAt.Format("2006-01-02 15:04:05")
	}
	errorsText := "none"
	if len(run.ErrorSample) > 0 {
		errorsText = strings.Join(run.ErrorSample, "\n")
	}

	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"header": map[string]interface{}{
				"template": "red",
				"title": map[string]interface{}{
					"content": "Productivity scan aborted",
					"tag":     "plain_text",
				},
			},
			"elements": []interface{}{
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"content": fmt.Sprintf("**Run**: %s (trigger %s)\n**Reason**: %s", run.ID, run.Trigger, run.FailureReason),
						"tag":     "lark_md",
					},
				},
				map[string]interface{}{
					"tag": "hr",
				},
				map[string]interface{}{
					"tag": "div",
					"fields": []interface{}{
						field(fmt.Sprintf("**Processed / Skipped / Errors**\n%d / %d / %d", run.Processed, run.Skipped, run.Errors)),
						field(fmt.Sprintf("**Started / Finished**\n%s / %s", run.StartedAt.Format("2006-01-02 15:04:05"), finished)),
					},
				},
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"content": fmt.Sprintf("**Pair errors**\n%s", errorsText),
						"tag":     "lark_md",
					},
				},
			},
		},
	}
}

func field(content string) map[string]interface{} {
	return map[string]interface{}{
		"is_short": true,
		"text": map[string]interface{}{
			"content": content,
			"tag":     "lark_md",
		},
	}
}
