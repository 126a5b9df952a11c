package models

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MemberList is every member in the company.
type MemberList struct {
	Members []*Member `json:"members"`
}

func NewMemberList(members []*Member) *MemberList {
	sort.SliceStable(members, func(i, j int) bool { return members[i].Player < members[j].Player })
	return &MemberList{Members: members}
}

func (l *MemberList) Count() int { return len(l.Members) }

// IsMember returns the member name matching player. Screenshots confuse O and 0, so
// both spellings are tried. With partial, a member whose name starts with the scanned
// text also matches, as roster scans often cut multi-word names short.
func (l *MemberList) IsMember(player string, partial bool) (string, bool) {
	withZero := strings.ReplaceAll(player, "O", "0")
	withO := strings.ReplaceAll(withZero, "0", "O")

	for _, m := range l.Members {
		if m.Player == player || m.Player == withZero || m.Player == withO {
			return m.Player, true
		}
		if partial && player != "" && (strings.HasPrefix(m.Player, player) ||
			strings.HasPrefix(m.Player, withZero) ||
			strings.HasPrefix(m.Player, withO)) {
			return m.Player, true
		}
	}
	return "", false
}

// Get returns the member with the exact player name.
func (l *MemberList) Get(player string) *Member {
	for _, m := range l.Members {
		if m.Player == player {
			return m
		}
	}
	return nil
}

// byFaction yields members in faction order, restricted to faction when set.
func (l *MemberList) byFaction(faction string) []*Member {
	var out []*Member
	for _, f := range Factions {
		if faction != "" && f != faction {
			continue
		}
		for _, m := range l.Members {
			if m.Faction == f {
				out = append(out, m)
			}
		}
	}
	return out
}

func (l *MemberList) Post(faction string) []string {
	lines := []string{"Player         Faction   Start"}
	members := l.byFaction(faction)
	for _, m := range members {
		lines = append(lines, fmt.Sprintf("%-14s %-9s %d", m.Player, m.Faction, m.Start))
	}
	lines = append(lines, " ")
	if faction == "" {
		return append(lines, fmt.Sprintf("%d members in clan.", len(members)))
	}
	return append(lines, fmt.Sprintf("%d members in clan for faction %s.", len(members), faction))
}

func (l *MemberList) Markdown(faction string) string {
	var b strings.Builder
	if faction == "" {
		b.WriteString("# Member List\n")
	} else {
		fmt.Fprintf(&b, "# Member List for %s\n", faction)
	}
	b.WriteString("*Note: This list may be truncated if too long, run **report members** if count not shown.*\n")
	members := l.byFaction(faction)
	for _, m := range members {
		fmt.Fprintf(&b, "- %s (%s) started %d\n", m.Player, m.Faction, m.Start)
	}
	fmt.Fprintf(&b, "\nCount: %d\n", len(members))
	return b.String()
}

func (l *MemberList) CSV() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"player", "faction", "start"})
	for _, m := range l.byFaction("") {
		_ = w.Write([]string{m.Player, m.Faction, strconv.Itoa(m.Start)})
	}
	w.Flush()
	return b.String()
}

func (l *MemberList) String() string {
	return fmt.Sprintf("MemberList(count=%d)", l.Count())
}
