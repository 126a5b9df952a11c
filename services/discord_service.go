package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"irus/models"
)

// Discord rejects messages over 2000 characters.
const MaxPostLength = 1995

// SplitTable packs a title and code-formatted rows into as few messages as fit.
func SplitTable(title string, rows []string) []string {
	var posts []string
	current := title + "\n"
	for _, row := range rows {
		line := "`" + row + "`\n"
		if len(current)+len(line) > MaxPostLength {
			posts = append(posts, current)
			current = line
			continue
		}
		current += line
	}
	return append(posts, current)
}

// ResultPosts returns the messages that report one processed file.
func ResultPosts(res *models.ProcessResult) []string {
	if len(res.Table) == 0 {
		return []string{res.Body}
	}
	return SplitTable(res.Body, res.Table)
}

// DiscordService posts follow-up messages to an interaction through the posttable workflow.
type DiscordService struct {
	Starter    WorkflowStarter
	PostARN    string
	WebhookURL string
	AppID      string
	Logger     *zap.Logger
}

func NewDiscordService(starter WorkflowStarter, postARN, webhookURL, appID string, log *zap.Logger) *DiscordService {
	return &DiscordService{Starter: starter, PostARN: postARN, WebhookURL: webhookURL, AppID: appID, Logger: log}
}

// PostURL is the follow-up webhook of an interaction token.
func (ds *DiscordService) PostURL(token string) string {
	return fmt.Sprintf("%s/%s/%s", ds.WebhookURL, ds.AppID, token)
}

// PostTable posts rows under title as follow-ups to the interaction.
func (ds *DiscordService) PostTable(ctx context.Context, token string, rows []string, title string) error {
	in := models.PostTableInput{Post: ds.PostURL(token), Msg: SplitTable(title, rows)}
	in.Count = len(in.Msg)
	if in.Count > 4 {
		ds.Logger.Warn("too many posts for table", zap.String("title", title), zap.Int("count", in.Count))
	}
	return ds.start(ctx, in, title)
}

// PostMessage posts a single follow-up to the interaction.
func (ds *DiscordService) PostMessage(ctx context.Context, token, msg string) error {
	return ds.start(ctx, models.PostTableInput{Post: ds.PostURL(token), Msg: []string{msg}, Count: 1}, "message")
}

func (ds *DiscordService) start(ctx context.Context, in models.PostTableInput, title string) error {
	ds.Logger.Info("starting post workflow", zap.String("title", title), zap.Int("posts", in.Count))
	if err := ds.Starter.Start(ctx, ds.PostARN, in); err != nil {
		return fmt.Errorf("Failed to call post table step function: %w", err)
	}
	return nil
}

// Webhook posts messages to a Discord webhook URL.
type Webhook struct {
	HTTP      *http.Client
	Logger    *zap.Logger
	RetryWait time.Duration
}

func NewWebhook(log *zap.Logger) *Webhook {
	return &Webhook{HTTP: &http.Client{Timeout: 10 * time.Second}, Logger: log, RetryWait: 2 * time.Second}
}

type webhookMessage struct {
	Content string `json:"content"`
}

// Post sends content, retrying server errors and rate limits.
func (w *Webhook) Post(ctx context.Context, url, content string) error {
	payload, err := json.Marshal(webhookMessage{Content: content})
	if err != nil {
		return err
	}
	return retry(ctx, w.RetryWait, func(err error, wait time.Duration) {
		w.Logger.Warn("webhook post failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := w.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return classify("webhook", resp, string(body))
	})
}

// PostAll posts each message of a posttable input in order.
func (w *Webhook) PostAll(ctx context.Context, in models.PostTableInput) error {
	for i, msg := range in.Msg {
		if err := w.Post(ctx, in.Post, msg); err != nil {
			return fmt.Errorf("failed to post message %d of %d: %w", i+1, len(in.Msg), err)
		}
	}
	w.Logger.Info("posted messages", zap.Int("count", len(in.Msg)))
	return nil
}
