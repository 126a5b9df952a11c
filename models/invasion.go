package models

import (
	"fmt"
	"strings"
)

// Invasion is a single invasion event, stored under the #invasion partition.
type Invasion struct {
	Partition  string `dynamodbav:"invasion" json:"-"`
	Name       string `dynamodbav:"id" json:"name" validate:"required,min=8,max=15"`
	Settlement string `dynamodbav:"settlement" json:"settlement" validate:"settlement"`
	Win        bool   `dynamodbav:"win" json:"win"`
	Date       int    `dynamodbav:"date" json:"date" validate:"yyyymmdd"`
	Year       int    `dynamodbav:"year" json:"year" validate:"gte=2020"`
	Month      int    `dynamodbav:"month" json:"month" validate:"gte=1,lte=12"`
	Day        int    `dynamodbav:"day" json:"day" validate:"gte=1,lte=31"`
	Notes      string `dynamodbav:"notes,omitempty" json:"notes,omitempty" validate:"max=1000"`
}

// NewInvasion builds and validates an invasion from user supplied values.
func NewInvasion(day, month, year int, settlement string, win bool, notes string) (*Invasion, error) {
	date, err := DateInt(day, month, year)
	if err != nil {
		return nil, err
	}
	settlement = strings.ToLower(strings.TrimSpace(settlement))
	inv := &Invasion{
		Partition:  PartitionInvasion,
		Name:       fmt.Sprintf("%d-%s", date, settlement),
		Settlement: settlement,
		Win:        win,
		Date:       date,
		Year:       year,
		Month:      month,
		Day:        day,
		Notes:      strings.TrimSpace(notes),
	}
	if err := Validate(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// SettlementName is the display name of the settlement, or the code when unknown.
func (i *Invasion) SettlementName() string {
	if name, ok := Settlements[i.Settlement]; ok {
		return name
	}
	return i.Settlement
}

// MonthPrefix returns YYYYMM.
func (i *Invasion) MonthPrefix() string {
	return fmt.Sprintf("%d%02d", i.Year, i.Month)
}

func (i *Invasion) PathLadders() string { return "ladders/" + i.Name + "/" }
func (i *Invasion) PathRoster() string  { return "roster/" + i.Name + "/" }

func (i *Invasion) String() string {
	s := fmt.Sprintf("%s, %s, %d, %t", i.Name, i.Settlement, i.Date, i.Win)
	if i.Notes != "" {
		s += ", " + i.Notes
	}
	return s
}

func (i *Invasion) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Invasion %s\n", i.Name)
	for _, line := range i.Post()[1:] {
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Post returns the invasion as lines for a Discord table post.
func (i *Invasion) Post() []string {
	lines := []string{
		"Invasion: " + i.Name,
		"Settlement: " + i.SettlementName(),
		fmt.Sprintf("Date: %d", i.Date),
		fmt.Sprintf("Win: %t", i.Win),
	}
	if i.Notes != "" {
		lines = append(lines, "Notes: "+i.Notes)
	}
	return lines
}

// MonthOf validates an invasion name and returns its YYYYMM prefix.
func MonthOf(invasion string) (string, error) {
	if len(invasion) < 6 {
		return "", fmt.Errorf("%w: invasion %s should start with datestamp", ErrInvalid, invasion)
	}
	month := invasion[:6]
	for _, c := range month {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w: invasion %s should start with datestamp", ErrInvalid, invasion)
		}
	}
	return month, nil
}
