package models

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Ladder is every rank recorded for one invasion.
type Ladder struct {
	Invasion string        `json:"invasion"`
	Ranks    []*LadderRank `json:"ranks"`
}

func NewLadder(invasion string, ranks []*LadderRank) *Ladder {
	l := &Ladder{Invasion: invasion, Ranks: ranks}
	l.Sort()
	return l
}

// Sort orders ranks by position.
func (l *Ladder) Sort() {
	sort.SliceStable(l.Ranks, func(i, j int) bool {
		return l.Ranks[i].Position() < l.Ranks[j].Position()
	})
}

func (l *Ladder) Count() int { return len(l.Ranks) }

// MemberCount counts members that took part, ignoring ladder rows without a score.
func (l *Ladder) MemberCount() int {
	n := 0
	for _, r := range l.Ranks {
		if r.Member && r.Scored() {
			n++
		}
	}
	return n
}

func (l *Ladder) RankByPosition(position int) *LadderRank {
	for _, r := range l.Ranks {
		if r.Position() == position {
			return r
		}
	}
	return nil
}

// MemberRank returns the player's row when they are a member who took part.
func (l *Ladder) MemberRank(player string) *LadderRank {
	for _, r := range l.Ranks {
		if r.Player == player && r.Member && r.Scored() {
			return r
		}
	}
	return nil
}

// ContiguousFrom1Until returns the last rank reached from 1 without a gap.
func (l *Ladder) ContiguousFrom1Until() int {
	positions := make([]int, 0, len(l.Ranks))
	for _, r := range l.Ranks {
		positions = append(positions, r.Position())
	}
	sort.Ints(positions)

	expected := 1
	for _, p := range positions {
		if p != expected {
			return expected - 1
		}
		expected++
	}
	return expected - 1
}

// ListMembers formats players as "[rr] name", bold for errors and italic for adjusted rows.
func (l *Ladder) ListMembers(memberOnly bool) string {
	entries := make([]string, 0, len(l.Ranks))
	for _, r := range l.Ranks {
		if memberOnly && !r.Member {
			continue
		}
		mark := ""
		if r.Error {
			mark = "**"
		} else if r.Adjusted {
			mark = "*"
		}
		entries = append(entries, fmt.Sprintf("%s[%s] %s%s", mark, r.Rank, r.Player, mark))
	}
	return strings.Join(entries, ", ")
}

func (l *Ladder) CSV() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ladder for invasion %s\n", l.Invasion)
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"rank", "player", "score", "kills", "deaths", "assists", "heals", "damage", "scan"})
	for _, r := range l.sorted() {
		scan := "ok"
		if r.Error {
			scan = "error"
		} else if r.Adjusted {
			scan = "adjusted"
		}
		_ = w.Write([]string{r.Rank, r.Player, strconv.Itoa(r.Score), strconv.Itoa(r.Kills), strconv.Itoa(r.Deaths),
			strconv.Itoa(r.Assists), strconv.Itoa(r.Heals), strconv.Itoa(r.Damage), scan})
	}
	w.Flush()
	return b.String()
}

func (l *Ladder) Markdown() string {
	return fmt.Sprintf("# Ladder\nRanks: %d\nInvasion: %s\n", l.Count(), l.Invasion)
}

// Post returns the ladder as lines for a Discord table post.
func (l *Ladder) Post() []string {
	lines := []string{
		"Invasion: " + l.Invasion,
		fmt.Sprintf("Ranks: %d", l.Count()),
		RankHeader(),
	}
	for _, r := range l.sorted() {
		lines = append(lines, r.Post())
	}
	return append(lines, RankFooter())
}

func (l *Ladder) String() string {
	return fmt.Sprintf("Ladder for invasion %s with %d rank(s) including %d member(s)",
		l.Invasion, l.Count(), l.MemberCount())
}

func (l *Ladder) sorted() []*LadderRank {
	out := append([]*LadderRank(nil), l.Ranks...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position() < out[j].Position() })
	return out
}
