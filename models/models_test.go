package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvasion(t *testing.T) {
	inv, err := NewInvasion(5, 3, 2024, " BW ", true, "  fought hard ")
	require.NoError(t, err)
	assert.Equal(t, "20240305-bw", inv.Name)
	assert.Equal(t, PartitionInvasion, inv.Partition)
	assert.Equal(t, "Brightwood", inv.SettlementName())
	assert.Equal(t, "202403", inv.MonthPrefix())
	assert.Equal(t, "ladders/20240305-bw/", inv.PathLadders())
	assert.Equal(t, "roster/20240305-bw/", inv.PathRoster())
	assert.Equal(t, "20240305-bw, bw, 20240305, true, fought hard", inv.String())
	assert.Equal(t, "## Invasion 20240305-bw\nSettlement: Brightwood\nDate: 20240305\nWin: true\nNotes: fought hard\n", inv.Markdown())
}

func TestNewInvasionInvalid(t *testing.T) {
	tests := []struct {
		name       string
		day, month int
		year       int
		settlement string
		notes      string
		want       string
	}{
		{"unknown settlement", 1, 1, 2024, "zz", "", "unknown settlement"},
		{"no such day", 30, 2, 2024, "bw", "", "not a valid date"},
		{"before 2020", 1, 1, 2019, "bw", "", "at least 2020"},
		{"long notes", 1, 1, 2024, "bw", strings.Repeat("x", 1001), "notes must be at most 1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInvasion(tt.day, tt.month, tt.year, tt.settlement, false, tt.notes)
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewInvasionBoundaries(t *testing.T) {
	_, err := NewInvasion(1, 1, 2020, "ww", false, strings.Repeat("x", 1000))
	require.NoError(t, err)
	_, err = NewInvasion(29, 2, 2024, "ww", false, "")
	require.NoError(t, err)
}

func TestMonthOf(t *testing.T) {
	m, err := MonthOf("20240305-bw")
	require.NoError(t, err)
	assert.Equal(t, "202403", m)

	_, err = MonthOf("bw-2024")
	require.ErrorIs(t, err, ErrInvalid)
	_, err = MonthOf("2024")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestNewMember(t *testing.T) {
	m, err := NewMember(" Jolly ", 1, 2, 2023, "Covenant", true, false, "jolly#1", "")
	require.NoError(t, err)
	assert.Equal(t, "Jolly", m.Player)
	assert.Equal(t, 20230201, m.Start)
	assert.Equal(t, FactionCovenant, m.Faction)
	assert.Equal(t, []string{"Faction: covenant", "Starting: 20230201", "Admin: true", "Earns salary: false"}, m.Post())

	add := m.AuditEvent(MemberEventAdd, "20240101120000")
	assert.Equal(t, PartitionMemberEvent, add.Partition)
	assert.Equal(t, "Jolly", add.Player)
	assert.Equal(t, FactionCovenant, add.Faction)
	assert.Equal(t, "20240101120000#Jolly#add", add.Key)
	del := m.AuditEvent(MemberEventDelete, "20240101120001")
	assert.Empty(t, del.Faction)
}

func TestNewMemberInvalid(t *testing.T) {
	_, err := NewMember("Jolly", 1, 2, 2023, "pirates", false, false, "", "")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "faction")

	_, err = NewMember("  ", 1, 2, 2023, "covenant", false, false, "", "")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = NewMember(strings.Repeat("p", 51), 1, 2, 2023, "covenant", false, false, "", "")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = NewMember("Jolly", 1, 2, 2023, "covenant", false, false, strings.Repeat("d", 101), "")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestRankValidation(t *testing.T) {
	r := NewLadderRank("20240305-bw", 7, "Jolly")
	assert.Equal(t, "07", r.Rank)
	assert.Equal(t, 7, r.Position())
	assert.Equal(t, "20240305-bw", r.InvasionName())
	require.NoError(t, Validate(r))

	r.Rank = "00"
	require.ErrorIs(t, Validate(r), ErrInvalid)
	r.Rank = "100"
	require.ErrorIs(t, Validate(r), ErrInvalid)
	r.Rank = "99"
	r.Score = -1
	require.ErrorIs(t, Validate(r), ErrInvalid)
}

func testLadder() *Ladder {
	ranks := []*LadderRank{
		{Rank: "03", Player: "Cleo", Score: 300, Member: true, Ladder: true, Error: true},
		{Rank: "01", Player: "Ann", Score: 900, Kills: 5, Member: true, Ladder: true},
		{Rank: "02", Player: "Bob", Score: 500, Ladder: true, Adjusted: true},
		{Rank: "05", Player: "Eve", Member: true, Ladder: true},
	}
	return NewLadder("20240305-bw", ranks)
}

func TestLadder(t *testing.T) {
	l := testLadder()

	assert.Equal(t, 4, l.Count())
	assert.Equal(t, 2, l.MemberCount())
	assert.Equal(t, "Bob", l.RankByPosition(2).Player)
	assert.Nil(t, l.RankByPosition(4))
	assert.Equal(t, 3, l.ContiguousFrom1Until())
	assert.Nil(t, l.MemberRank("Eve"), "ladder row without score is not counted")
	assert.Nil(t, l.MemberRank("Bob"), "non member")
	assert.Equal(t, "01", l.MemberRank("Ann").Rank)

	assert.Equal(t, "[01] Ann, *[02] Bob*, **[03] Cleo**, [05] Eve", l.ListMembers(false))
	assert.Equal(t, "[01] Ann, **[03] Cleo**, [05] Eve", l.ListMembers(true))
	assert.Equal(t, "Ladder for invasion 20240305-bw with 4 rank(s) including 2 member(s)", l.String())
	assert.Equal(t, "# Ladder\nRanks: 4\nInvasion: 20240305-bw\n", l.Markdown())

	csv := strings.Split(l.CSV(), "\n")
	assert.Equal(t, "ladder for invasion 20240305-bw", csv[0])
	assert.Equal(t, "rank,player,score,kills,deaths,assists,heals,damage,scan", csv[1])
	assert.Equal(t, "01,Ann,900,5,0,0,0,0,ok", csv[2])
	assert.Equal(t, "02,Bob,500,0,0,0,0,0,adjusted", csv[3])
	assert.Equal(t, "03,Cleo,300,0,0,0,0,0,error", csv[4])

	post := l.Post()
	assert.Equal(t, "Invasion: 20240305-bw", post[0])
	assert.Equal(t, "Ranks: 4", post[1])
	assert.Equal(t, RankHeader(), post[2])
	assert.True(t, strings.HasPrefix(post[3], "01   Ann"))
	assert.Equal(t, RankFooter(), post[len(post)-1])
}

func TestContiguousFrom1UntilEmpty(t *testing.T) {
	assert.Equal(t, 0, NewLadder("x", nil).ContiguousFrom1Until())
	l := NewLadder("x", []*LadderRank{{Rank: "02"}})
	assert.Equal(t, 0, l.ContiguousFrom1Until())
}

func TestFromRoster(t *testing.T) {
	r := FromRoster("20240305-bw", 3, "Ann")
	assert.True(t, r.Member)
	assert.False(t, r.Ladder)
	assert.True(t, r.Scored())
	assert.Equal(t, LadderPartition("20240305-bw"), r.Partition)
}

func testMembers() *MemberList {
	return NewMemberList([]*Member{
		{Player: "Zed", Faction: FactionSyndicate, Start: 20230101, Salary: true},
		{Player: "B0B", Faction: FactionCovenant, Start: 20230102},
		{Player: "Long Name Here", Faction: FactionMarauders, Start: 20230103, Salary: true},
		{Player: "Ann", Faction: FactionCovenant, Start: 20230104, Salary: true},
	})
}

func TestIsMember(t *testing.T) {
	ml := testMembers()

	tests := []struct {
		player  string
		partial bool
		want    string
		found   bool
	}{
		{"Ann", false, "Ann", true},
		{"BOB", false, "B0B", true},
		{"B0B", false, "B0B", true},
		{"Long Name", false, "", false},
		{"Long Name", true, "Long Name Here", true},
		{"An", true, "Ann", true},
		{"Nobody", true, "", false},
		{"", true, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.player, func(t *testing.T) {
			got, ok := ml.IsMember(tt.player, tt.partial)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemberListOutputs(t *testing.T) {
	ml := testMembers()

	post := ml.Post("")
	assert.Equal(t, "Player         Faction   Start", post[0])
	assert.True(t, strings.HasPrefix(post[1], "Ann "))
	assert.True(t, strings.HasPrefix(post[2], "B0B "))
	assert.True(t, strings.HasPrefix(post[3], "Long Name Here"))
	assert.True(t, strings.HasPrefix(post[4], "Zed "))
	assert.Equal(t, "4 members in clan.", post[len(post)-1])

	assert.Equal(t, "2 members in clan for faction covenant.", ml.Post(FactionCovenant)[4])

	md := ml.Markdown(FactionSyndicate)
	assert.True(t, strings.HasPrefix(md, "# Member List for syndicate\n"))
	assert.Contains(t, md, "- Zed (syndicate) started 20230101\n")
	assert.True(t, strings.HasSuffix(md, "\nCount: 1\n"))

	assert.Equal(t, "player,faction,start\nAnn,covenant,20230104\nB0B,covenant,20230102\n"+
		"Long Name Here,marauders,20230103\nZed,syndicate,20230101\n", ml.CSV())
}

func TestCSVQuotesFields(t *testing.T) {
	l := NewLadder("20240305-bw", []*LadderRank{
		{Rank: "01", Player: "Smith, J", Score: 10},
		{Rank: "02", Player: `Big "Q"`, Score: 5},
	})
	rows := strings.Split(l.CSV(), "\n")
	assert.Equal(t, `01,"Smith, J",10,0,0,0,0,0,ok`, rows[2])
	assert.Equal(t, `02,"Big ""Q""",5,0,0,0,0,0,ok`, rows[3])

	ml := NewMemberList([]*Member{{Player: "A,B", Faction: FactionCovenant, Start: 20230101}})
	assert.Equal(t, "player,faction,start\n\"A,B\",covenant,20230101\n", ml.CSV())
}

func TestBuildMonth(t *testing.T) {
	inv1 := &Invasion{Name: "20240301-bw", Win: true}
	inv2 := &Invasion{Name: "20240310-ww", Win: false}
	inv3 := &Invasion{Name: "20240320-ef", Win: true}

	ladders := map[string]*Ladder{
		inv1.Name: NewLadder(inv1.Name, []*LadderRank{
			{Rank: "04", Player: "Ann", Score: 1000, Kills: 10, Deaths: 2, Member: true, Ladder: true},
			{Rank: "09", Player: "Zed", Score: 500, Kills: 3, Member: true, Ladder: true},
		}),
		inv2.Name: NewLadder(inv2.Name, []*LadderRank{
			{Rank: "02", Player: "Ann", Score: 1500, Kills: 5, Deaths: 1, Member: true, Ladder: true},
		}),
		inv3.Name: NewLadder(inv3.Name, []*LadderRank{
			{Rank: "01", Player: "Ann", Member: true},
			{Rank: "02", Player: "B0B", Member: true},
		}),
	}
	members := testMembers().Members

	month := BuildMonth("202403", []*Invasion{inv1, inv2, inv3}, ladders, members)
	assert.Equal(t, 3, month.Invasions)
	require.Len(t, month.Report, 3, "Long Name Here had no invasions")

	ann := month.Stats("Ann")
	require.NotNil(t, ann)
	assert.Equal(t, MonthPartition("202403"), ann.Partition)
	assert.Equal(t, 3, ann.Invasions)
	assert.Equal(t, 2, ann.Ladders)
	assert.Equal(t, 2, ann.Wins)
	assert.Equal(t, 2500, ann.SumScore)
	assert.Equal(t, 1500, ann.MaxScore)
	assert.Equal(t, 1250.0, ann.AvgScore)
	assert.Equal(t, 7.5, ann.AvgKills)
	assert.Equal(t, 1.5, ann.AvgDeaths)
	assert.Equal(t, 3.0, ann.AvgRank)
	assert.Equal(t, 2, ann.MaxRank)

	bob := month.Stats("B0B")
	require.NotNil(t, bob)
	assert.Equal(t, 0, bob.Ladders)
	assert.Equal(t, 100, bob.MaxRank)
	assert.Equal(t, 0.0, bob.AvgScore)

	// Ann and Zed earn salary, B0B does not
	assert.Equal(t, 3, month.Participation)

	assert.Equal(t, "# Monthly report for 202403\n- Invasions: 3\n- Active Members (1 or more invasions): 3\n"+
		"- Participation (sum of members across invasions won): 3\n", month.Markdown())

	csv := strings.Split(month.CSV(), "\n")
	assert.True(t, strings.HasPrefix(csv[0], "month,name,salary,invasions,ladders,wins,sum_score"))
	assert.Len(t, csv, 5)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 3.3, round1(10.0/3))
	assert.Equal(t, 6.7, round1(20.0/3))
}

func TestPreviousMonth(t *testing.T) {
	assert.Equal(t, "202312", PreviousMonth(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "202402", PreviousMonth(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, ValidMonth("202402"))
	assert.False(t, ValidMonth("202413"))
	assert.False(t, ValidMonth("2024"))
}

func TestNewProcessInput(t *testing.T) {
	inv := &Invasion{Name: "20240305-bw"}
	files := []File{{Name: "file1", Attachment: "1", Filename: "a.png", URL: "https://cdn/a.png"}}

	in, err := NewProcessInput("https://hook/app/token", inv, files, ProcessRoster)
	require.NoError(t, err)
	assert.Equal(t, "roster/20240305-bw/", in.Folder)
	assert.Equal(t, "202403", in.Month)

	in, err = NewProcessInput("p", inv, files, ProcessDownload)
	require.NoError(t, err)
	assert.Equal(t, "ladders/20240305-bw/", in.Folder)

	fi := in.FileInputs()
	require.Len(t, fi, 1)
	assert.Equal(t, "ladders/20240305-bw/a.png", fi[0].Key())

	_, err = NewProcessInput("p", inv, files, "Nope")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestDeadhandMessage(t *testing.T) {
	d := DeadhandInput{Error: "States.TaskFailed", Cause: "boom"}
	assert.Equal(t, "Unrecoverable error: States.TaskFailed boom", d.Message())
}
