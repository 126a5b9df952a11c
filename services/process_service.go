package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"irus/models"
)

// LadderReader extracts a ladder from a stored screenshot.
type LadderReader interface {
	LadderFromImage(ctx context.Context, invasion string, members *models.MemberList, key string) (*models.Ladder, error)
	LadderFromRoster(ctx context.Context, invasion string, members *models.MemberList, key string) (*models.Ladder, error)
}

// ProcessService downloads a screenshot, stores it and records the ladder it shows.
type ProcessService struct {
	HTTP      *http.Client
	Storage   *S3Service
	Reader    LadderReader
	Invasions *InvasionService
	Members   *MemberService
	Ladders   *LadderService
	Logger    *zap.Logger
	// RetryWait is the first backoff interval for downloads.
	RetryWait time.Duration
}

func NewProcessService(storage *S3Service, reader LadderReader, invasions *InvasionService, members *MemberService, ladders *LadderService, log *zap.Logger) *ProcessService {
	return &ProcessService{
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Storage:   storage,
		Reader:    reader,
		Invasions: invasions,
		Members:   members,
		Ladders:   ladders,
		Logger:    log,
		RetryWait: 2 * time.Second,
	}
}

// Process handles one file of the process workflow.
func (ps *ProcessService) Process(ctx context.Context, in models.FileInput) (*models.ProcessResult, error) {
	log := ps.Logger.With(zap.String("invasion", in.Invasion), zap.String("file", in.Filename), zap.String("process", in.Process))

	if !strings.HasSuffix(strings.ToLower(in.Filename), ".png") {
		log.Info("skipping non-png file")
		return &models.ProcessResult{
			StatusCode: http.StatusBadRequest,
			Body:       fmt.Sprintf("Skipping %s as it is not a PNG file", in.Filename),
		}, nil
	}

	data, err := ps.Download(ctx, in.URL)
	if err != nil {
		return nil, err
	}
	key := in.Key()
	if err := ps.Storage.Put(ctx, key, data, "image/png"); err != nil {
		return nil, err
	}
	result := &models.ProcessResult{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf("Successful download of %s. ", in.Filename),
	}
	if in.Process != models.ProcessLadder && in.Process != models.ProcessRoster {
		return result, nil
	}

	members, err := ps.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := ps.Invasions.Get(ctx, in.Invasion)
	if err != nil {
		return nil, err
	}

	var ladder *models.Ladder
	if in.Process == models.ProcessRoster {
		ladder, err = ps.Reader.LadderFromRoster(ctx, inv.Name, members, key)
	} else {
		ladder, err = ps.Reader.LadderFromImage(ctx, inv.Name, members, key)
	}
	if err != nil {
		return nil, err
	}
	if err := ps.Ladders.SaveFromProcessing(ctx, ladder, key); err != nil {
		return nil, err
	}
	log.Info("processed screenshot", zap.Int("ranks", ladder.Count()), zap.Int("members", ladder.MemberCount()))

	result.Body += ladder.String()
	result.Table = ladder.Post()
	return result, nil
}

// Download fetches url, retrying server errors with backoff.
func (ps *ProcessService) Download(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := retry(ctx, ps.RetryWait, func(err error, wait time.Duration) {
		ps.Logger.Warn("download failed, retrying", zap.String("url", url), zap.Error(err), zap.Duration("wait", wait))
	}, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := ps.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := classify(url, resp, string(body)); err != nil {
			return err
		}
		data = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	return data, nil
}
