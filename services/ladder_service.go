package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"irus/models"
	"irus/utils"
)

type LadderService struct {
	Dynamo *DynamoService
	Now    func() time.Time
}

func NewLadderService(dynamo *DynamoService) *LadderService {
	return &LadderService{Dynamo: dynamo, Now: time.Now}
}

func (ls *LadderService) timestamp() string {
	return ls.Now().UTC().Format(models.TimestampLayout)
}

// Get loads the ladder of an invasion, empty when none has been stored.
func (ls *LadderService) Get(ctx context.Context, invasion string) (*models.Ladder, error) {
	var ranks []*models.LadderRank
	if err := ls.Dynamo.QueryItems(ctx, models.LadderPartition(invasion), &ranks); err != nil {
		return nil, err
	}
	return models.NewLadder(invasion, ranks), nil
}

// SaveFromProcessing records the upload and then stores every rank of the ladder.
func (ls *LadderService) SaveFromProcessing(ctx context.Context, ladder *models.Ladder, uploadKey string) error {
	ts := ls.timestamp()
	upload := &models.Upload{
		Partition: models.UploadPartition(ladder.Invasion),
		Key:       uploadKey,
		Timestamp: ts,
	}
	if err := ls.Dynamo.PutItem(ctx, upload); err != nil {
		return fmt.Errorf("failed to record upload %s: %w", uploadKey, err)
	}

	items := make([]interface{}, 0, len(ladder.Ranks))
	kept := ladder.Ranks[:0]
	for _, r := range ladder.Ranks {
		r.Partition = models.LadderPartition(ladder.Invasion)
		r.Event = ts
		if err := models.Validate(r); err != nil {
			ls.Dynamo.Logger.Warn("skipping invalid rank", zap.String("invasion", ladder.Invasion),
				zap.String("rank", r.Rank), zap.String("player", r.Player), zap.Error(err))
			continue
		}
		kept = append(kept, r)
		items = append(items, r)
	}
	ladder.Ranks = kept
	if err := ls.Dynamo.BatchPutItems(ctx, items); err != nil {
		return err
	}
	ls.Dynamo.Logger.Info("stored ladder", zap.String("invasion", ladder.Invasion),
		zap.Int("ranks", ladder.Count()), zap.String("upload", uploadKey))
	return nil
}

// Uploads lists the screenshot keys processed for an invasion.
func (ls *LadderService) Uploads(ctx context.Context, invasion string) ([]*models.Upload, error) {
	var uploads []*models.Upload
	if err := ls.Dynamo.QueryItems(ctx, models.UploadPartition(invasion), &uploads); err != nil {
		return nil, err
	}
	return uploads, nil
}

func (ls *LadderService) SaveRank(ctx context.Context, invasion string, r *models.LadderRank) error {
	r.Partition = models.LadderPartition(invasion)
	r.Event = ls.timestamp()
	if err := models.Validate(r); err != nil {
		return err
	}
	return ls.Dynamo.PutItem(ctx, r)
}

func (ls *LadderService) GetRank(ctx context.Context, invasion string, position int) (*models.LadderRank, error) {
	var r models.LadderRank
	if err := ls.Dynamo.GetItem(ctx, models.LadderPartition(invasion), models.RankString(position), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (ls *LadderService) DeleteRank(ctx context.Context, invasion string, position int) error {
	return ls.Dynamo.DeleteItem(ctx, models.LadderPartition(invasion), models.RankString(position), nil)
}

// DeleteLadder removes every rank of an invasion.
func (ls *LadderService) DeleteLadder(ctx context.Context, invasion string) error {
	ladder, err := ls.Get(ctx, invasion)
	if err != nil {
		return err
	}
	ids := make([]string, 0, ladder.Count())
	for _, r := range ladder.Ranks {
		ids = append(ids, r.Rank)
	}
	return ls.Dynamo.BatchDeleteItems(ctx, models.LadderPartition(invasion), ids)
}

// RankForPlayer finds the row of a player in an invasion.
func (ls *LadderService) RankForPlayer(ctx context.Context, invasion, player string) (*models.LadderRank, error) {
	var ranks []*models.LadderRank
	if err := ls.Dynamo.QueryWithFilter(ctx, models.LadderPartition(invasion), "player", player, &ranks); err != nil {
		return nil, err
	}
	switch len(ranks) {
	case 0:
		return nil, fmt.Errorf("%w: player %s not in invasion %s", ErrItemNotFound, player, invasion)
	case 1:
		return ranks[0], nil
	default:
		return nil, fmt.Errorf("player %s matches %d rows in invasion %s", player, len(ranks), invasion)
	}
}

// UpdateMembership sets the member flag of one rank.
func (ls *LadderService) UpdateMembership(ctx context.Context, invasion string, position int, member bool) error {
	updated, err := ls.Dynamo.UpdateItem(ctx, models.LadderPartition(invasion), models.RankString(position),
		"SET #member = :member, #event = :event",
		map[string]string{"#member": "member", "#event": "event"},
		map[string]types.AttributeValue{
			":member": &types.AttributeValueMemberBOOL{Value: member},
			":event":  &types.AttributeValueMemberS{Value: ls.timestamp()},
		})
	if err != nil {
		return err
	}
	ls.Dynamo.Logger.Info("updated membership",
		zap.String("invasion", invasion),
		zap.String("rank", utils.ExtractString(updated, "id")),
		zap.String("player", utils.ExtractString(updated, "player")),
		zap.Int("score", utils.ExtractInt(updated, "score")),
		zap.Bool("member", utils.ExtractBool(updated, "member")))
	return nil
}

// FlagNewMember marks a new member in every invasion ladder on or after their start.
func (ls *LadderService) FlagNewMember(ctx context.Context, invasions []*models.Invasion, player string) (string, error) {
	if len(invasions) == 0 {
		return "\nNo invasions found to update\n", nil
	}

	var updated []string
	for _, inv := range invasions {
		r, err := ls.RankForPlayer(ctx, inv.Name, player)
		if err != nil {
			ls.Dynamo.Logger.Debug("member not in ladder", zap.String("invasion", inv.Name), zap.Error(err))
			continue
		}
		if err := ls.UpdateMembership(ctx, inv.Name, r.Position(), true); err != nil {
			return "", err
		}
		updated = append(updated, fmt.Sprintf("- %s rank %s", inv.Name, r.Rank))
	}

	if len(updated) == 0 {
		return "\nNo ladder entries found to update\n", nil
	}
	return "\n## Member flag updated in these invasions:\n" + strings.Join(updated, "\n") + "\n", nil
}

// LadderEdit holds the changes requested for one rank. Nil or zero values are left alone.
type LadderEdit struct {
	Rank    int
	NewRank int
	Member  *bool
	Player  string
	Score   int
}

// Edit corrects a rank, moves it to a new rank, or adds a missing row.
func (ls *LadderService) Edit(ctx context.Context, invasion string, edit LadderEdit) (string, error) {
	r, err := ls.GetRank(ctx, invasion, edit.Rank)
	if err != nil && !errors.Is(err, ErrItemNotFound) {
		return "", err
	}
	moving := edit.NewRank != 0 && edit.NewRank != edit.Rank

	if r == nil {
		switch {
		case edit.Player == "":
			return fmt.Sprintf("Rank %d in invasion %s not found, need to provide player name to add new row", edit.Rank, invasion), nil
		case moving:
			return fmt.Sprintf("Rank %d does not exist to replace new rank %d", edit.Rank, edit.NewRank), nil
		}
		r = models.NewLadderRank(invasion, edit.Rank, edit.Player)
		r.Score = edit.Score
		r.Member = edit.Member != nil && *edit.Member
		r.Adjusted = true
		if err := ls.SaveRank(ctx, invasion, r); err != nil {
			return "", err
		}
		return fmt.Sprintf("Creating new entry for rank %d in invasion %s\n%s", edit.Rank, invasion, r), nil
	}

	var msg string
	if moving {
		msg = fmt.Sprintf("Replacing rank %d in invasion %s : ", edit.NewRank, invasion)
		r.Rank = models.RankString(edit.NewRank)
	} else {
		msg = fmt.Sprintf("Updating rank %d in invasion %s: ", edit.Rank, invasion)
	}

	if edit.Member != nil {
		msg += fmt.Sprintf("\nmember %t -> %t", r.Member, *edit.Member)
		r.Member = *edit.Member
		r.Adjusted = true
	}
	if edit.Player != "" {
		msg += fmt.Sprintf("\nplayer %s -> %s", r.Player, edit.Player)
		r.Player = edit.Player
		r.Adjusted = true
	}
	if edit.Score != 0 {
		msg += fmt.Sprintf("\nscore %d -> %d", r.Score, edit.Score)
		r.Score = edit.Score
		r.Adjusted = true
	}

	// The old row is only removed once the moved row is known to be valid.
	if err := models.Validate(r); err != nil {
		return "", err
	}
	if moving {
		if err := ls.DeleteRank(ctx, invasion, edit.Rank); err != nil {
			return "", err
		}
	}
	if err := ls.SaveRank(ctx, invasion, r); err != nil {
		return "", err
	}
	return msg + "\n" + r.String(), nil
}
