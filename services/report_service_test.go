package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"irus/models"
)

func reportLadder(positions ...int) *models.Ladder {
	ranks := make([]*models.LadderRank, 0, len(positions))
	for i, p := range positions {
		r := models.NewLadderRank("20240301-bw", p, []string{"Ann", "Bob", "Cleo", "Dan"}[i])
		r.Score, r.Ladder, r.Member = 100*(10-p), true, i%2 == 0
		ranks = append(ranks, r)
	}
	return models.NewLadder("20240301-bw", ranks)
}

func TestInvasionReportComplete(t *testing.T) {
	storage, mem := newTestStorage()
	rs := NewReportService(storage)

	msg, err := rs.InvasionReport(context.Background(), reportLadder(1, 2, 3))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "Found 2 members from 3 participants.\n"), msg)
	assert.Contains(t, msg, "Ann")
	assert.True(t, strings.HasSuffix(msg,
		"Report can be downloaded from **[here](https://bucket.example/reports/invasion/20240301-bw.csv)** for one hour."))

	csv, ok := mem.get("reports/invasion/20240301-bw.csv")
	require.True(t, ok)
	assert.Equal(t, 5, strings.Count(string(csv), "\n"), "title, header and three rows")
}

func TestInvasionReportMissingRow(t *testing.T) {
	storage, _ := newTestStorage()
	rs := NewReportService(storage)

	msg, err := rs.InvasionReport(context.Background(), reportLadder(1, 2, 4))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg,
		"Missing row 3, next row found was 04. Have all screenshots been uploaded?\n"), msg)
}

func TestMembersReport(t *testing.T) {
	storage, mem := newTestStorage()
	rs := NewReportService(storage)
	rs.Now = fixedClock("20240305101500")

	members := models.NewMemberList([]*models.Member{
		{Player: "Bob", Faction: models.FactionSyndicate, Start: 20240101},
		{Player: "Ann", Faction: models.FactionCovenant, Start: 20231201},
	})
	msg, err := rs.MembersReport(context.Background(), members)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "# 2 Members\nReport can be downloaded"))

	csv, ok := mem.get("reports/members/20240305101500.csv")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(csv), "player,faction,start\n"))
}

func TestMonthAndMemberReport(t *testing.T) {
	storage, mem := newTestStorage()
	rs := NewReportService(storage)
	ctx := context.Background()

	stats := &models.MonthStats{Player: "Ann Marie", Salary: true, Invasions: 2, Ladders: 2, Wins: 1, SumScore: 300, MaxRank: 1}
	month := models.NewMonth("202403", 2, []*models.MonthStats{stats})

	msg, err := rs.MonthReport(ctx, month)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, month.Markdown()))
	_, ok := mem.get("reports/month/202403.csv")
	assert.True(t, ok)

	msg, err = rs.MemberReport(ctx, "202403", stats)
	require.NoError(t, err)
	assert.Contains(t, msg, "Sum: Score 300")
	assert.Equal(t, "reports/member/202403/ann-marie.csv", MemberReportKey("202403", "Ann Marie"))
	_, ok = mem.get("reports/member/202403/ann-marie.csv")
	assert.True(t, ok)
}
