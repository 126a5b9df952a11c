package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"irus/models"
)

type MonthService struct {
	Dynamo    *DynamoService
	Invasions *InvasionService
	Members   *MemberService
	Ladders   *LadderService
}

func NewMonthService(dynamo *DynamoService, invasions *InvasionService, members *MemberService, ladders *LadderService) *MonthService {
	return &MonthService{Dynamo: dynamo, Invasions: invasions, Members: members, Ladders: ladders}
}

// Build aggregates the month from its invasions and stores the active member rows.
func (ms *MonthService) Build(ctx context.Context, month string) (*models.Month, error) {
	if !models.ValidMonth(month) {
		return nil, fmt.Errorf("%w: month %q must be YYYYMM", models.ErrInvalid, month)
	}

	invasions, err := ms.Invasions.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	members, err := ms.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(invasions) == 0 {
		ms.Dynamo.Logger.Info("no invasions in month", zap.String("month", month))
	}

	ladders := make(map[string]*models.Ladder, len(invasions))
	for _, inv := range invasions {
		l, err := ms.Ladders.Get(ctx, inv.Name)
		if err != nil {
			return nil, err
		}
		ladders[inv.Name] = l
	}

	m := models.BuildMonth(month, invasions, ladders, members.Members)

	items := make([]interface{}, 0, len(m.Report))
	for _, r := range m.Report {
		items = append(items, r)
	}
	if err := ms.Dynamo.BatchPutItems(ctx, items); err != nil {
		return nil, err
	}
	ms.Dynamo.Logger.Info("built month", zap.String("month", month),
		zap.Int("invasions", m.Invasions), zap.Int("active", len(m.Report)))
	return m, nil
}

// Get loads the stored rows of a month.
func (ms *MonthService) Get(ctx context.Context, month string) (*models.Month, error) {
	var rows []*models.MonthStats
	if err := ms.Dynamo.QueryItems(ctx, models.MonthPartition(month), &rows); err != nil {
		return nil, err
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Player < rows[j].Player })

	invasions, err := ms.Invasions.ListByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	return models.NewMonth(month, len(invasions), rows), nil
}

// MemberStats returns one player's row for the month.
func (ms *MonthService) MemberStats(ctx context.Context, month, player string) (*models.MonthStats, error) {
	var r models.MonthStats
	if err := ms.Dynamo.GetItem(ctx, models.MonthPartition(month), player, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// MemberReport formats a player's month for Discord.
func (ms *MonthService) MemberReport(ctx context.Context, month, player string) (string, error) {
	r, err := ms.MemberStats(ctx, month, player)
	if errors.Is(err, ErrItemNotFound) {
		return fmt.Sprintf("No data found for player %s in month %s", player, month), nil
	}
	if err != nil {
		return "", err
	}
	return r.Markdown(month), nil
}

// Delete removes every stored row of a month.
func (ms *MonthService) Delete(ctx context.Context, month string) error {
	var rows []*models.MonthStats
	if err := ms.Dynamo.QueryItems(ctx, models.MonthPartition(month), &rows); err != nil {
		return err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Player)
	}
	return ms.Dynamo.BatchDeleteItems(ctx, models.MonthPartition(month), ids)
}
