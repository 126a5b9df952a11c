package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"irus/models"
)

// FileProcessor handles one file of the process workflow.
type FileProcessor interface {
	Process(ctx context.Context, in models.FileInput) (*models.ProcessResult, error)
}

// Poster delivers follow-up messages.
type Poster interface {
	Post(ctx context.Context, url, content string) error
	PostAll(ctx context.Context, in models.PostTableInput) error
}

// ProgressPublisher broadcasts workflow progress to listeners of a room.
type ProgressPublisher interface {
	Publish(room, event string, payload interface{})
}

// Progress is the payload of a workflow progress event.
type Progress struct {
	Invasion string `json:"invasion"`
	Step     string `json:"step"`
	File     string `json:"file,omitempty"`
	Message  string `json:"message,omitempty"`
}

const progressEvent = "progress"

// LocalRunner runs the process and posttable workflows in-process for local development.
type LocalRunner struct {
	ProcessARN string
	PostARN    string
	Processor  FileProcessor
	Poster     Poster
	Progress   ProgressPublisher
	Logger     *zap.Logger
	Limit      int

	ctx context.Context
	wg  sync.WaitGroup
}

// NewLocalRunner runs workflows under ctx, so cancelling it stops work in flight.
func NewLocalRunner(ctx context.Context, processARN, postARN string, processor FileProcessor, poster Poster, progress ProgressPublisher, log *zap.Logger) *LocalRunner {
	return &LocalRunner{
		ProcessARN: processARN,
		PostARN:    postARN,
		Processor:  processor,
		Poster:     poster,
		Progress:   progress,
		Logger:     log,
		Limit:      4,
		ctx:        ctx,
	}
}

// Start runs the workflow named by arn in the background.
func (lr *LocalRunner) Start(_ context.Context, arn string, input interface{}) error {
	payload, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to encode workflow input: %w", err)
	}

	switch arn {
	case lr.ProcessARN:
		var in models.ProcessInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return err
		}
		lr.goRun(func() { lr.runProcess(lr.ctx, in) })
	case lr.PostARN:
		var in models.PostTableInput
		if err := json.Unmarshal(payload, &in); err != nil {
			return err
		}
		lr.goRun(func() { lr.runPost(lr.ctx, in) })
	default:
		return fmt.Errorf("unknown workflow %q", arn)
	}
	return nil
}

func (lr *LocalRunner) goRun(f func()) {
	lr.wg.Add(1)
	go func() {
		defer lr.wg.Done()
		f()
	}()
}

// Wait blocks until every started workflow has finished.
func (lr *LocalRunner) Wait() {
	lr.wg.Wait()
}

func (lr *LocalRunner) publish(p Progress) {
	if lr.Progress != nil {
		lr.Progress.Publish(p.Invasion, progressEvent, p)
	}
}

func (lr *LocalRunner) runProcess(ctx context.Context, in models.ProcessInput) {
	log := lr.Logger.With(zap.String("invasion", in.Invasion), zap.String("process", in.Process))
	files := in.FileInputs()
	lr.publish(Progress{Invasion: in.Invasion, Step: "start", Message: fmt.Sprintf("%d file(s)", len(files))})

	results := make([]*models.ProcessResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lr.Limit)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			res, err := lr.Processor.Process(gctx, f)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Filename, err)
			}
			results[i] = res
			lr.publish(Progress{Invasion: in.Invasion, Step: "file", File: f.Filename, Message: res.Body})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		lr.deadhand(ctx, in.Invasion, in.Post, models.DeadhandInput{Error: "ProcessFailed", Cause: err.Error()})
		return
	}

	for _, res := range results {
		msg := ResultPosts(res)
		if err := lr.Poster.PostAll(ctx, models.PostTableInput{Post: in.Post, Msg: msg, Count: len(msg)}); err != nil {
			lr.deadhand(ctx, in.Invasion, in.Post, models.DeadhandInput{Error: "PostFailed", Cause: err.Error()})
			return
		}
	}
	log.Info("process workflow finished", zap.Int("files", len(files)))
	lr.publish(Progress{Invasion: in.Invasion, Step: "done"})
}

func (lr *LocalRunner) runPost(ctx context.Context, in models.PostTableInput) {
	if err := lr.Poster.PostAll(ctx, in); err != nil {
		lr.deadhand(ctx, "", in.Post, models.DeadhandInput{Error: "PostFailed", Cause: err.Error()})
	}
}

func (lr *LocalRunner) deadhand(ctx context.Context, invasion, post string, d models.DeadhandInput) {
	msg := d.Message()
	lr.Logger.Error("workflow failed", zap.String("invasion", invasion), zap.String("error", d.Error), zap.String("cause", d.Cause))
	if invasion != "" {
		lr.publish(Progress{Invasion: invasion, Step: "failed", Message: msg})
	}
	if err := lr.Poster.Post(ctx, post, msg); err != nil {
		lr.Logger.Error("failed to post deadhand notification", zap.Error(err))
	}
}
