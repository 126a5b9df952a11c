package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"irus/models"
)

func TestSplitTable(t *testing.T) {
	posts := SplitTable("Title", []string{"a", "b"})
	assert.Equal(t, []string{"Title\n`a`\n`b`\n"}, posts)

	row := strings.Repeat("x", 96) // 99 characters with quotes and newline
	rows := make([]string, 40)
	for i := range rows {
		rows[i] = row
	}
	posts = SplitTable("Ladder", rows)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.LessOrEqual(t, len(p), MaxPostLength)
	}
	assert.True(t, strings.HasPrefix(posts[0], "Ladder\n"))
	assert.Equal(t, 40, strings.Count(strings.Join(posts, ""), "`\n"))
}

type recordingStarter struct {
	arn   string
	input interface{}
	err   error
}

func (r *recordingStarter) Start(_ context.Context, arn string, input interface{}) error {
	r.arn, r.input = arn, input
	return r.err
}

func TestDiscordServicePostTable(t *testing.T) {
	starter := &recordingStarter{}
	ds := NewDiscordService(starter, "post-arn", "https://discord.com/api/webhooks", "app", zap.NewNop())

	assert.Equal(t, "https://discord.com/api/webhooks/app/tok", ds.PostURL("tok"))

	require.NoError(t, ds.PostTable(context.Background(), "tok", []string{"r1", "r2"}, "Title"))
	assert.Equal(t, "post-arn", starter.arn)
	in := starter.input.(models.PostTableInput)
	assert.Equal(t, "https://discord.com/api/webhooks/app/tok", in.Post)
	assert.Equal(t, 1, in.Count)

	starter.err = errors.New("throttled")
	err := ds.PostMessage(context.Background(), "tok", "hello")
	require.EqualError(t, err, "Failed to call post table step function: throttled")
}

type webhookServer struct {
	mu       sync.Mutex
	statuses []int
	headers  []map[string]string
	received []string
	calls    atomic.Int32
}

func (ws *webhookServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(ws.calls.Add(1)) - 1
	var msg struct {
		Content string `json:"content"`
	}
	_ = json.NewDecoder(r.Body).Decode(&msg)

	ws.mu.Lock()
	ws.received = append(ws.received, msg.Content)
	status := http.StatusNoContent
	if n < len(ws.statuses) {
		status = ws.statuses[n]
	}
	if n < len(ws.headers) {
		for k, v := range ws.headers[n] {
			w.Header().Set(k, v)
		}
	}
	ws.mu.Unlock()
	w.WriteHeader(status)
}

func testWebhook() *Webhook {
	w := NewWebhook(zap.NewNop())
	w.RetryWait = time.Millisecond
	return w
}

func TestWebhookRetriesServerErrors(t *testing.T) {
	ws := &webhookServer{statuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable}}
	srv := httptest.NewServer(ws)
	defer srv.Close()

	require.NoError(t, testWebhook().Post(context.Background(), srv.URL, "hi"))
	assert.EqualValues(t, 3, ws.calls.Load())
	assert.Equal(t, []string{"hi", "hi", "hi"}, ws.received)
}

func TestWebhookGivesUpAfterThreeAttempts(t *testing.T) {
	ws := &webhookServer{statuses: []int{500, 500, 500, 500}}
	srv := httptest.NewServer(ws)
	defer srv.Close()

	err := testWebhook().Post(context.Background(), srv.URL, "hi")
	require.Error(t, err)
	assert.EqualValues(t, maxAttempts, ws.calls.Load())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 500, se.StatusCode)
}

func TestWebhookClientErrorIsPermanent(t *testing.T) {
	ws := &webhookServer{statuses: []int{http.StatusNotFound}}
	srv := httptest.NewServer(ws)
	defer srv.Close()

	err := testWebhook().Post(context.Background(), srv.URL, "hi")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.EqualValues(t, 1, ws.calls.Load())
}

func TestWebhookHonoursRetryAfter(t *testing.T) {
	ws := &webhookServer{
		statuses: []int{http.StatusTooManyRequests},
		headers:  []map[string]string{{"Retry-After": "0.05"}},
	}
	srv := httptest.NewServer(ws)
	defer srv.Close()

	start := time.Now()
	require.NoError(t, testWebhook().Post(context.Background(), srv.URL, "hi"))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.EqualValues(t, 2, ws.calls.Load())
}

func TestWebhookPostAllInOrder(t *testing.T) {
	ws := &webhookServer{}
	srv := httptest.NewServer(ws)
	defer srv.Close()

	in := models.PostTableInput{Post: srv.URL, Msg: []string{"one", "two", "three"}, Count: 3}
	require.NoError(t, testWebhook().PostAll(context.Background(), in))
	assert.Equal(t, []string{"one", "two", "three"}, ws.received)
}

func TestWebhookPostAllStopsOnFailure(t *testing.T) {
	ws := &webhookServer{statuses: []int{204, 400}}
	srv := httptest.NewServer(ws)
	defer srv.Close()

	in := models.PostTableInput{Post: srv.URL, Msg: []string{"one", "two", "three"}, Count: 3}
	err := testWebhook().PostAll(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to post message 2 of 3")
	assert.Equal(t, []string{"one", "two"}, ws.received)
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, time.Millisecond, nil, func() error {
		calls++
		cancel()
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
