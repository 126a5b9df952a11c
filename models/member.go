package models

import (
	"fmt"
	"strings"
)

// Member is a company member, stored under the #member partition keyed by player.
type Member struct {
	Partition string `dynamodbav:"invasion" json:"-"`
	Player    string `dynamodbav:"id" json:"player" validate:"required,min=1,max=50"`
	Start     int    `dynamodbav:"start" json:"start" validate:"yyyymmdd"`
	Faction   string `dynamodbav:"faction" json:"faction" validate:"faction"`
	Admin     bool   `dynamodbav:"admin" json:"admin"`
	Salary    bool   `dynamodbav:"salary" json:"salary"`
	Discord   string `dynamodbav:"discord,omitempty" json:"discord,omitempty" validate:"max=100"`
	Notes     string `dynamodbav:"notes,omitempty" json:"notes,omitempty" validate:"max=500"`
	Event     string `dynamodbav:"event,omitempty" json:"event,omitempty"`
}

// MemberEvent is an audit record under #memberevent keyed by "<timestamp>#<player>#<event>".
type MemberEvent struct {
	Partition string `dynamodbav:"invasion" json:"-"`
	Key       string `dynamodbav:"id" json:"-"`
	Timestamp string `dynamodbav:"timestamp" json:"timestamp"`
	Event     string `dynamodbav:"event" json:"event"`
	Player    string `dynamodbav:"player" json:"player"`
	Faction   string `dynamodbav:"faction,omitempty" json:"faction,omitempty"`
	Admin     bool   `dynamodbav:"admin,omitempty" json:"admin,omitempty"`
	Salary    bool   `dynamodbav:"salary,omitempty" json:"salary,omitempty"`
	Start     int    `dynamodbav:"start,omitempty" json:"start,omitempty"`
	Discord   string `dynamodbav:"discord,omitempty" json:"discord,omitempty"`
	Notes     string `dynamodbav:"notes,omitempty" json:"notes,omitempty"`
}

// NewMember builds and validates a member from user supplied values.
func NewMember(player string, day, month, year int, faction string, admin, salary bool, discord, notes string) (*Member, error) {
	start, err := DateInt(day, month, year)
	if err != nil {
		return nil, err
	}
	m := &Member{
		Partition: PartitionMember,
		Player:    strings.TrimSpace(player),
		Start:     start,
		Faction:   strings.ToLower(strings.TrimSpace(faction)),
		Admin:     admin,
		Salary:    salary,
		Discord:   strings.TrimSpace(discord),
		Notes:     strings.TrimSpace(notes),
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// AuditEvent builds the #memberevent record for this member.
func (m *Member) AuditEvent(event, timestamp string) *MemberEvent {
	e := &MemberEvent{
		Partition: PartitionMemberEvent,
		Key:       timestamp + "#" + m.Player + "#" + event,
		Timestamp: timestamp,
		Event:     event,
		Player:    m.Player,
	}
	if event == MemberEventAdd {
		e.Faction = m.Faction
		e.Admin = m.Admin
		e.Salary = m.Salary
		e.Start = m.Start
		e.Discord = m.Discord
		e.Notes = m.Notes
	}
	return e
}

func (m *Member) Markdown() string {
	return fmt.Sprintf("## Member %s\nFaction: %s\nStarting %d\nAdmin %t\n", m.Player, m.Faction, m.Start, m.Admin)
}

func (m *Member) Post() []string {
	lines := []string{
		"Faction: " + m.Faction,
		fmt.Sprintf("Starting: %d", m.Start),
		fmt.Sprintf("Admin: %t", m.Admin),
		fmt.Sprintf("Earns salary: %t", m.Salary),
	}
	if m.Notes != "" {
		lines = append(lines, "Notes: "+m.Notes)
	}
	return lines
}
