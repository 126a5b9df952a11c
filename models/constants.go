package models

// Partition keys of the single invasion table
const (
	PartitionInvasion    = "#invasion"
	PartitionMember      = "#member"
	PartitionMemberEvent = "#memberevent"
	PrefixLadder         = "#ladder#"
	PrefixUpload         = "#upload#"
	PrefixMonth          = "#month#"
)

// Member audit events
const (
	MemberEventAdd    = "add"
	MemberEventDelete = "delete"
)

// Factions, in the order members are listed
const (
	FactionCovenant  = "covenant"
	FactionMarauders = "marauders"
	FactionSyndicate = "syndicate"
)

var Factions = []string{FactionCovenant, FactionMarauders, FactionSyndicate}

// Screenshot processing workflows
const (
	ProcessLadder   = "Ladder"
	ProcessRoster   = "Roster"
	ProcessDownload = "Download"
)

// Settlements maps settlement codes to their in-game names.
var Settlements = map[string]string{
	"bw": "Brightwood",
	"bs": "Brimstone Sands",
	"ck": "Cutlass Keys",
	"er": "Ebonscale Reach",
	"eg": "Edengrove",
	"ef": "Everfall",
	"mb": "Monarchs Bluff",
	"md": "Mourningdale",
	"rw": "Reekwater",
	"rs": "Restless Shore",
	"wf": "Weavers Fen",
	"ww": "Windsward",
}

// Timestamp layouts used for sort keys
const (
	DateLayout      = "20060102"
	MonthLayout     = "200601"
	TimestampLayout = "20060102150405"
)

func LadderPartition(invasion string) string { return PrefixLadder + invasion }
func UploadPartition(invasion string) string { return PrefixUpload + invasion }
func MonthPartition(month string) string     { return PrefixMonth + month }
