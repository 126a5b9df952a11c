package models

import (
	"fmt"
	"strconv"
	"strings"
)

// LadderRank is one row of an invasion ladder, stored under #ladder#<invasion> keyed by rank.
type LadderRank struct {
	Partition string `dynamodbav:"invasion" json:"-"`
	Rank      string `dynamodbav:"id" json:"rank" validate:"rank"`
	Player    string `dynamodbav:"player" json:"player" validate:"required,min=1,max=50"`
	Score     int    `dynamodbav:"score" json:"score" validate:"gte=0"`
	Kills     int    `dynamodbav:"kills" json:"kills" validate:"gte=0"`
	Deaths    int    `dynamodbav:"deaths" json:"deaths" validate:"gte=0"`
	Assists   int    `dynamodbav:"assists" json:"assists" validate:"gte=0"`
	Heals     int    `dynamodbav:"heals" json:"heals" validate:"gte=0"`
	Damage    int    `dynamodbav:"damage" json:"damage" validate:"gte=0"`
	Member    bool   `dynamodbav:"member" json:"member"`
	Ladder    bool   `dynamodbav:"ladder" json:"ladder"`
	Adjusted  bool   `dynamodbav:"adjusted" json:"adjusted"`
	Error     bool   `dynamodbav:"error" json:"error"`
	Event     string `dynamodbav:"event,omitempty" json:"event,omitempty"`
}

// RankString formats a rank position as the two-digit sort key.
func RankString(position int) string {
	return fmt.Sprintf("%02d", position)
}

// NewLadderRank returns an empty row for the invasion at the given position.
func NewLadderRank(invasion string, position int, player string) *LadderRank {
	return &LadderRank{
		Partition: LadderPartition(invasion),
		Rank:      RankString(position),
		Player:    player,
	}
}

// FromRoster builds a member-only row from a roster screenshot.
func FromRoster(invasion string, position int, player string) *LadderRank {
	r := NewLadderRank(invasion, position, player)
	r.Member = true
	r.Ladder = false
	return r
}

// InvasionName is the invasion the row belongs to.
func (r *LadderRank) InvasionName() string {
	return strings.TrimPrefix(r.Partition, PrefixLadder)
}

// Position returns the rank as an integer, 0 when unparseable.
func (r *LadderRank) Position() int {
	n, err := strconv.Atoi(r.Rank)
	if err != nil {
		return 0
	}
	return n
}

// Scored is true for members counted in an invasion: roster rows, or ladder rows with a score.
func (r *LadderRank) Scored() bool {
	return !r.Ladder || r.Score > 0
}

func (r *LadderRank) Post() string {
	return fmt.Sprintf("%-4s %-16s %7d %5d %6d %7d %7d %7d %-6t %-6t %-8t %t",
		r.Rank, r.Player, r.Score, r.Kills, r.Deaths, r.Assists, r.Heals, r.Damage,
		r.Member, r.Ladder, r.Adjusted, r.Error)
}

func (r *LadderRank) String() string {
	return fmt.Sprintf("rank %s player %s score %d member %t", r.Rank, r.Player, r.Score, r.Member)
}

func (r *LadderRank) Markdown() string {
	return fmt.Sprintf("**`%s`**\n`%s`\n%s\n", RankHeader(), r.Post(), RankFooter())
}

func RankHeader() string {
	return "Rank Player             Score Kills Deaths Assists   Heals  Damage Member Ladder Adjusted Error"
}

func RankFooter() string {
	return `
*Member*: True if company member
*Ladder*: True if from ladder
*Adjusted*: True if entry corrected by bot or manually, False if unchanged from scan
*Error*: True if error detected but correct value not known
`
}
