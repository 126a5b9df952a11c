package models

import (
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MonthStats is one member's statistics for a month, stored under #month#YYYYMM.
type MonthStats struct {
	Partition  string  `dynamodbav:"invasion" json:"-"`
	Player     string  `dynamodbav:"id" json:"player"`
	Salary     bool    `dynamodbav:"salary" json:"salary"`
	Invasions  int     `dynamodbav:"invasions" json:"invasions"`
	Ladders    int     `dynamodbav:"ladders" json:"ladders"`
	Wins       int     `dynamodbav:"wins" json:"wins"`
	SumScore   int     `dynamodbav:"sum_score" json:"sum_score"`
	SumKills   int     `dynamodbav:"sum_kills" json:"sum_kills"`
	SumAssists int     `dynamodbav:"sum_assists" json:"sum_assists"`
	SumDeaths  int     `dynamodbav:"sum_deaths" json:"sum_deaths"`
	SumHeals   int     `dynamodbav:"sum_heals" json:"sum_heals"`
	SumDamage  int     `dynamodbav:"sum_damage" json:"sum_damage"`
	AvgScore   float64 `dynamodbav:"avg_score" json:"avg_score"`
	AvgKills   float64 `dynamodbav:"avg_kills" json:"avg_kills"`
	AvgAssists float64 `dynamodbav:"avg_assists" json:"avg_assists"`
	AvgDeaths  float64 `dynamodbav:"avg_deaths" json:"avg_deaths"`
	AvgHeals   float64 `dynamodbav:"avg_heals" json:"avg_heals"`
	AvgDamage  float64 `dynamodbav:"avg_damage" json:"avg_damage"`
	AvgRank    float64 `dynamodbav:"avg_rank" json:"avg_rank"`
	MaxScore   int     `dynamodbav:"max_score" json:"max_score"`
	MaxKills   int     `dynamodbav:"max_kills" json:"max_kills"`
	MaxAssists int     `dynamodbav:"max_assists" json:"max_assists"`
	MaxDeaths  int     `dynamodbav:"max_deaths" json:"max_deaths"`
	MaxHeals   int     `dynamodbav:"max_heals" json:"max_heals"`
	MaxDamage  int     `dynamodbav:"max_damage" json:"max_damage"`
	MaxRank    int     `dynamodbav:"max_rank" json:"max_rank"`
}

// Month is the monthly report over every invasion in the month.
type Month struct {
	Month         string        `json:"month"`
	Invasions     int           `json:"invasions"`
	Participation int           `json:"participation"`
	Report        []*MonthStats `json:"report"`
}

// NewMonth wraps stored rows and computes participation.
func NewMonth(month string, invasions int, report []*MonthStats) *Month {
	m := &Month{Month: month, Invasions: invasions, Report: report}
	for _, r := range report {
		if r.Salary {
			m.Participation += r.Wins
		}
	}
	return m
}

// BuildMonth aggregates member statistics from the invasions of a month. ladders is
// keyed by invasion name. Only members with at least one invasion are kept.
func BuildMonth(month string, invasions []*Invasion, ladders map[string]*Ladder, members []*Member) *Month {
	stats := make([]*MonthStats, 0, len(members))
	for _, member := range members {
		stats = append(stats, &MonthStats{
			Partition: MonthPartition(month),
			Player:    member.Player,
			Salary:    member.Salary,
			MaxRank:   100,
		})
	}

	for _, inv := range invasions {
		ladder, ok := ladders[inv.Name]
		if !ok {
			continue
		}
		for _, r := range stats {
			rank := ladder.MemberRank(r.Player)
			if rank == nil {
				continue
			}
			r.Invasions++
			if inv.Win {
				r.Wins++
			}
			if !rank.Ladder {
				continue
			}
			r.Ladders++
			r.SumScore += rank.Score
			r.SumKills += rank.Kills
			r.SumAssists += rank.Assists
			r.SumDeaths += rank.Deaths
			r.SumHeals += rank.Heals
			r.SumDamage += rank.Damage
			r.AvgRank += float64(rank.Position())
			r.MaxScore = max(r.MaxScore, rank.Score)
			r.MaxKills = max(r.MaxKills, rank.Kills)
			r.MaxAssists = max(r.MaxAssists, rank.Assists)
			r.MaxDeaths = max(r.MaxDeaths, rank.Deaths)
			r.MaxHeals = max(r.MaxHeals, rank.Heals)
			r.MaxDamage = max(r.MaxDamage, rank.Damage)
			r.MaxRank = min(r.MaxRank, rank.Position())
		}
	}

	active := make([]*MonthStats, 0, len(stats))
	for _, r := range stats {
		if r.Ladders > 0 {
			n := float64(r.Ladders)
			r.AvgScore = round1(float64(r.SumScore) / n)
			r.AvgKills = round1(float64(r.SumKills) / n)
			r.AvgAssists = round1(float64(r.SumAssists) / n)
			r.AvgDeaths = round1(float64(r.SumDeaths) / n)
			r.AvgHeals = round1(float64(r.SumHeals) / n)
			r.AvgDamage = round1(float64(r.SumDamage) / n)
			r.AvgRank = round1(r.AvgRank / n)
		}
		if r.Invasions > 0 {
			active = append(active, r)
		}
	}
	return NewMonth(month, len(invasions), active)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Stats returns the row for a player, nil when they had no invasions.
func (m *Month) Stats(player string) *MonthStats {
	for _, r := range m.Report {
		if r.Player == player {
			return r
		}
	}
	return nil
}

func (m *Month) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Monthly report for %s\n", m.Month)
	fmt.Fprintf(&b, "- Invasions: %d\n", m.Invasions)
	fmt.Fprintf(&b, "- Active Members (1 or more invasions): %d\n", len(m.Report))
	fmt.Fprintf(&b, "- Participation (sum of members across invasions won): %d\n", m.Participation)
	return b.String()
}

func (m *Month) CSV() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"month", "name", "salary", "invasions", "ladders", "wins",
		"sum_score", "sum_kills", "sum_assists", "sum_deaths", "sum_heals", "sum_damage",
		"avg_score", "avg_kills", "avg_assists", "avg_deaths", "avg_heals", "avg_damage", "avg_ranks",
		"max_score", "max_kills", "max_assists", "max_deaths", "max_heals", "max_damage", "max_rank"})
	ints := func(vs ...int) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = strconv.Itoa(v)
		}
		return out
	}
	floats := func(vs ...float64) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = strconv.FormatFloat(v, 'f', 1, 64)
		}
		return out
	}
	for _, r := range m.Report {
		if r.Invasions == 0 {
			continue
		}
		row := []string{m.Month, r.Player, strconv.FormatBool(r.Salary)}
		row = append(row, ints(r.Invasions, r.Ladders, r.Wins,
			r.SumScore, r.SumKills, r.SumAssists, r.SumDeaths, r.SumHeals, r.SumDamage)...)
		row = append(row, floats(r.AvgScore, r.AvgKills, r.AvgAssists, r.AvgDeaths, r.AvgHeals, r.AvgDamage, r.AvgRank)...)
		row = append(row, ints(r.MaxScore, r.MaxKills, r.MaxAssists, r.MaxDeaths, r.MaxHeals, r.MaxDamage, r.MaxRank)...)
		_ = w.Write(row)
	}
	w.Flush()
	return b.String()
}

// Markdown reports one member's month.
func (r *MonthStats) Markdown(month string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Member report for %s in %s\n", r.Player, month)
	fmt.Fprintf(&b, "Invasions: %d, Ladders: %d, Wins: %d\n", r.Invasions, r.Ladders, r.Wins)
	fmt.Fprintf(&b, "Sum: Score %d, Kills %d, Deaths %d, Assists %d, Heals %d, Damage %d\n",
		r.SumScore, r.SumKills, r.SumDeaths, r.SumAssists, r.SumHeals, r.SumDamage)
	fmt.Fprintf(&b, "Max: Score %d, Kills %d, Deaths %d, Assists %d, Heals %d, Damage %d, Best rank %d\n",
		r.MaxScore, r.MaxKills, r.MaxDeaths, r.MaxAssists, r.MaxHeals, r.MaxDamage, r.MaxRank)
	fmt.Fprintf(&b, "Average: Score %.1f, Kills %.1f, Deaths %.1f, Assists %.1f, Heals %.1f, Damage %.1f, Rank %.1f\n",
		r.AvgScore, r.AvgKills, r.AvgDeaths, r.AvgAssists, r.AvgHeals, r.AvgDamage, r.AvgRank)
	return b.String()
}

// PreviousMonth returns the YYYYMM before now.
func PreviousMonth(now time.Time) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -1, 0).Format(MonthLayout)
}

// ValidMonth reports whether s is a YYYYMM month.
func ValidMonth(s string) bool {
	if len(s) != 6 {
		return false
	}
	_, err := time.Parse(MonthLayout, s)
	return err == nil
}
