package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"irus/models"
)

type MemberService struct {
	Dynamo *DynamoService
	Now    func() time.Time
}

func NewMemberService(dynamo *DynamoService) *MemberService {
	return &MemberService{Dynamo: dynamo, Now: time.Now}
}

func (ms *MemberService) timestamp() string {
	return ms.Now().UTC().Format(models.TimestampLayout)
}

// Create adds a member after recording an add event in the audit partition.
func (ms *MemberService) Create(ctx context.Context, m *models.Member) error {
	m.Partition = models.PartitionMember
	if _, err := ms.Get(ctx, m.Player); err == nil {
		return fmt.Errorf("%w: Member %s already exists", ErrAlreadyExists, m.Player)
	} else if !errors.Is(err, ErrItemNotFound) {
		return err
	}

	ts := ms.timestamp()
	if err := ms.Dynamo.PutItem(ctx, m.AuditEvent(models.MemberEventAdd, ts)); err != nil {
		return fmt.Errorf("failed to audit new member %s: %w", m.Player, err)
	}
	m.Event = ts
	if err := ms.Dynamo.CreateItem(ctx, m); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("%w: Member %s already exists", ErrAlreadyExists, m.Player)
		}
		return err
	}
	ms.Dynamo.Logger.Info("added member", zap.String("player", m.Player), zap.String("faction", m.Faction))
	return nil
}

func (ms *MemberService) Get(ctx context.Context, player string) (*models.Member, error) {
	var m models.Member
	if err := ms.Dynamo.GetItem(ctx, models.PartitionMember, player, &m); err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, fmt.Errorf("%w: Member %s not found", ErrItemNotFound, player)
		}
		return nil, err
	}
	return &m, nil
}

// List loads every member.
func (ms *MemberService) List(ctx context.Context) (*models.MemberList, error) {
	var members []*models.Member
	if err := ms.Dynamo.QueryItems(ctx, models.PartitionMember, &members); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		ms.Dynamo.Logger.Info("no members found")
	}
	return models.NewMemberList(members), nil
}

// RemoveWithAudit deletes a member and records the removal. A missing member is
// reported in the returned message rather than as an error.
func (ms *MemberService) RemoveWithAudit(ctx context.Context, player string) (string, error) {
	var old models.Member
	err := ms.Dynamo.DeleteItem(ctx, models.PartitionMember, player, &old)
	if errors.Is(err, ErrItemNotFound) {
		return fmt.Sprintf("*Member %s not found, nothing to remove*", player), nil
	}
	if err != nil {
		return "", err
	}

	if err := ms.Dynamo.PutItem(ctx, old.AuditEvent(models.MemberEventDelete, ms.timestamp())); err != nil {
		return "", fmt.Errorf("failed to audit removal of %s: %w", player, err)
	}
	ms.Dynamo.Logger.Info("removed member", zap.String("player", player))
	return fmt.Sprintf("## Removed member %s", player), nil
}

// Events returns the audit trail, oldest first.
func (ms *MemberService) Events(ctx context.Context) ([]*models.MemberEvent, error) {
	var events []*models.MemberEvent
	if err := ms.Dynamo.QueryItems(ctx, models.PartitionMemberEvent, &events); err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Key < events[j].Key })
	return events, nil
}
