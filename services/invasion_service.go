package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"irus/models"
)

type InvasionService struct {
	Dynamo *DynamoService
}

func NewInvasionService(dynamo *DynamoService) *InvasionService {
	return &InvasionService{Dynamo: dynamo}
}

// Create registers a new invasion, failing when the name is already taken.
func (is *InvasionService) Create(ctx context.Context, inv *models.Invasion) error {
	inv.Partition = models.PartitionInvasion
	err := is.Dynamo.CreateItem(ctx, inv)
	if errors.Is(err, ErrAlreadyExists) {
		return fmt.Errorf("%w: Invasion %s already exists", ErrAlreadyExists, inv.Name)
	}
	if err != nil {
		return err
	}
	is.Dynamo.Logger.Info("registered invasion", zap.String("invasion", inv.Name))
	return nil
}

// Save writes the invasion, replacing any existing one.
func (is *InvasionService) Save(ctx context.Context, inv *models.Invasion) error {
	inv.Partition = models.PartitionInvasion
	return is.Dynamo.PutItem(ctx, inv)
}

// Register returns the stored invasion, creating it first when new.
func (is *InvasionService) Register(ctx context.Context, inv *models.Invasion) (*models.Invasion, error) {
	existing, err := is.Get(ctx, inv.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrItemNotFound) {
		return nil, err
	}
	if err := is.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (is *InvasionService) Get(ctx context.Context, name string) (*models.Invasion, error) {
	var inv models.Invasion
	if err := is.Dynamo.GetItem(ctx, models.PartitionInvasion, name, &inv); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, fmt.Errorf("%w: Invasion %s not found", ErrItemNotFound, name)
		}
		return nil, err
	}
	return &inv, nil
}

func (is *InvasionService) Delete(ctx context.Context, name string) error {
	return is.Dynamo.DeleteItem(ctx, models.PartitionInvasion, name, nil)
}

// ListByMonth returns the invasions whose name starts with YYYYMM.
func (is *InvasionService) ListByMonth(ctx context.Context, month string) ([]*models.Invasion, error) {
	var out []*models.Invasion
	if err := is.Dynamo.QueryBeginsWith(ctx, models.PartitionInvasion, month, &out); err != nil {
		return nil, err
	}
	return sortInvasions(out), nil
}

// ListFromStart returns invasions on or after a YYYYMMDD start date.
func (is *InvasionService) ListFromStart(ctx context.Context, start int) ([]*models.Invasion, error) {
	var out []*models.Invasion
	if err := is.Dynamo.QueryFrom(ctx, models.PartitionInvasion, strconv.Itoa(start), &out); err != nil {
		return nil, err
	}
	return sortInvasions(out), nil
}

func (is *InvasionService) ListBySettlement(ctx context.Context, settlement string) ([]*models.Invasion, error) {
	var out []*models.Invasion
	if err := is.Dynamo.QueryWithFilter(ctx, models.PartitionInvasion, "settlement", settlement, &out); err != nil {
		return nil, err
	}
	return sortInvasions(out), nil
}

// ListByDateRange returns invasions between two YYYYMMDD dates inclusive.
func (is *InvasionService) ListByDateRange(ctx context.Context, from, to int) ([]*models.Invasion, error) {
	var out []*models.Invasion
	// '~' sorts after every settlement suffix
	if err := is.Dynamo.QueryBetween(ctx, models.PartitionInvasion, strconv.Itoa(from), strconv.Itoa(to)+"~", &out); err != nil {
		return nil, err
	}
	return sortInvasions(out), nil
}

func sortInvasions(invasions []*models.Invasion) []*models.Invasion {
	sort.Slice(invasions, func(i, j int) bool { return invasions[i].Name < invasions[j].Name })
	return invasions
}

// InvasionListMarkdown formats a month's invasion list for Discord.
func InvasionListMarkdown(month string, invasions []*models.Invasion) string {
	if len(invasions) == 0 {
		return fmt.Sprintf("No invasions found for month of %s", month)
	}
	msg := fmt.Sprintf("# Invasion List for %s\n", month)
	for _, inv := range invasions {
		msg += "- " + inv.Name + "\n"
	}
	return msg
}
