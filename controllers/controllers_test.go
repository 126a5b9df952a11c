package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/truora/minidyn/aws-v2/client"
	"go.uber.org/zap"

	"irus/models"
	"irus/services"
)

const testTable = "irus-test"

type bucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *bucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (b *bucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (b *bucket) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://bucket.example/" + aws.ToString(in.Key), Method: http.MethodGet}, nil
}

// recordingStarter captures workflow starts instead of calling Step Functions.
type recordingStarter struct {
	arns   []string
	inputs []interface{}
	err    error
}

func (r *recordingStarter) Start(_ context.Context, arn string, input interface{}) error {
	if r.err != nil {
		return r.err
	}
	r.arns = append(r.arns, arn)
	r.inputs = append(r.inputs, input)
	return nil
}

type fixture struct {
	invasions *services.InvasionService
	members   *services.MemberService
	ladders   *services.LadderService
	months    *services.MonthService
	reports   *services.ReportService
	discord   *services.DiscordService
	starter   *recordingStarter
	bucket    *bucket
	loc       *time.Location
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := client.NewClient()
	require.NoError(t, client.AddTable(context.Background(), fake, testTable, "invasion", "id"))
	log := zap.NewNop()

	dynamo := services.NewDynamoService(fake, testTable, log)
	b := &bucket{objects: map[string][]byte{}}
	storage := &services.S3Service{Client: b, Presigner: b, Bucket: "irus-bucket", Logger: log}
	starter := &recordingStarter{}

	f := &fixture{
		invasions: services.NewInvasionService(dynamo),
		members:   services.NewMemberService(dynamo),
		ladders:   services.NewLadderService(dynamo),
		reports:   services.NewReportService(storage),
		discord:   services.NewDiscordService(starter, "arn:post", "https://discord.com/api/v10/webhooks", "app", log),
		starter:   starter,
		bucket:    b,
		loc:       time.UTC,
		now:       time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC),
	}
	f.months = services.NewMonthService(dynamo, f.invasions, f.members, f.ladders)
	f.reports.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) addInvasion(t *testing.T, day int, settlement string) *models.Invasion {
	t.Helper()
	inv, err := models.NewInvasion(day, 3, 2024, settlement, true, "")
	require.NoError(t, err)
	require.NoError(t, f.invasions.Create(context.Background(), inv))
	return inv
}

func (f *fixture) addMember(t *testing.T, player, faction string) *models.Member {
	t.Helper()
	m, err := models.NewMember(player, 1, 1, 2024, faction, false, true, "", "")
	require.NoError(t, err)
	require.NoError(t, f.members.Create(context.Background(), m))
	return m
}

func (f *fixture) addRank(t *testing.T, invasion string, position int, player string, score int, member bool) {
	t.Helper()
	r := models.NewLadderRank(invasion, position, player)
	r.Score = score
	r.Member = member
	r.Ladder = true
	require.NoError(t, f.ladders.SaveRank(context.Background(), invasion, r))
}

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", services.ErrItemNotFound), http.StatusNotFound},
		{services.ErrAlreadyExists, http.StatusConflict},
		{fmt.Errorf("%w: bad settlement", models.ErrInvalid), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
