package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// SlackNotifier posts moderation events to a channel via "incoming webhook".
//
// The slack incoming webhook must be already configured in the slack
// workplace.
type SlackNotifier struct {
	SlackWebhookURL string
}

var _ Notifier = (*SlackNotifier)(nil)

func (n *SlackNotifier) QueueAlert(ctx context.Context, alert QueueAlert) error {
	msg := "⚠️ Moderation Queue Alert ⚠️\n"
	msg += fmt.Sprintf("`%s` (item `%s`) is now *%s* priority\n", alert.ContentID, alert.ItemID, alert.Priority)
	if len(alert.Flags) > 0 {
		strs := make([]string, len(alert.Flags))
		for i, f := range alert.Flags {
			strs[i] = string(f)
		}
		msg += fmt.Sprintf("Flags: `%s`\n", strings.Join(strs, ", "))
	}
	return n.sendSlackMsg(ctx, msg)
}

func (n *SlackNotifier) UserNotice(ctx context.Context, notice UserNotice) error {
	msg := "Moderation outcome\n"
	msg += fmt.Sprintf("user `%s`: %s (%s)\n", notice.UserID, notice.Outcome, notice.Reason)
	return n.sendSlackMsg(ctx, msg)
}

type slackWebhookBody struct {
	Text string `json:"text"`
}

func (n *SlackNotifier) sendSlackMsg(ctx context.Context, msg string) error {
	body, err := json.Marshal(slackWebhookBody{Text: msg})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.SlackWebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != 200 || buf.String() != "ok" {
		return fmt.Errorf("failed slack webhook POST request. status=%d", resp.StatusCode)
	}
	return nil
}
