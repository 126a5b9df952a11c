package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"irus/models"
)

const reportExpiry = time.Hour

// ReportService uploads CSV reports and links them for download.
type ReportService struct {
	Storage *S3Service
	Now     func() time.Time
}

func NewReportService(storage *S3Service) *ReportService {
	return &ReportService{Storage: storage, Now: time.Now}
}

// Publish uploads a report and returns the Discord message linking to it.
func (rs *ReportService) Publish(ctx context.Context, key, body string) (string, error) {
	if err := rs.Storage.Put(ctx, key, []byte(body), "text/csv"); err != nil {
		return "", err
	}
	url, err := rs.Storage.GenerateReadURL(ctx, key, reportExpiry)
	if err != nil {
		return "", err
	}
	rs.Storage.Logger.Info("published report", zap.String("key", key))
	return fmt.Sprintf("Report can be downloaded from **[here](%s)** for one hour.", url), nil
}

// InvasionReport summarises the ladder and publishes it as CSV.
func (rs *ReportService) InvasionReport(ctx context.Context, ladder *models.Ladder) (string, error) {
	var msg string
	last := ladder.ContiguousFrom1Until()
	if last != ladder.Count() {
		next := "none"
		for _, r := range ladder.Ranks {
			if r.Position() > last+1 {
				next = r.Rank
				break
			}
		}
		msg = fmt.Sprintf("Missing row %d, next row found was %s. Have all screenshots been uploaded?\n", last+1, next)
	} else {
		msg = fmt.Sprintf("Found %d members from %d participants.\n", ladder.MemberCount(), ladder.Count())
	}
	msg += ladder.ListMembers(true) + "\n"

	link, err := rs.Publish(ctx, "reports/invasion/"+ladder.Invasion+".csv", ladder.CSV())
	if err != nil {
		return "", err
	}
	return msg + link, nil
}

// MembersReport publishes the member list as CSV.
func (rs *ReportService) MembersReport(ctx context.Context, members *models.MemberList) (string, error) {
	key := "reports/members/" + rs.Now().UTC().Format(models.TimestampLayout) + ".csv"
	link, err := rs.Publish(ctx, key, members.CSV())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("# %d Members\n%s", members.Count(), link), nil
}

// MonthReport publishes the month as CSV after its summary.
func (rs *ReportService) MonthReport(ctx context.Context, month *models.Month) (string, error) {
	link, err := rs.Publish(ctx, "reports/month/"+month.Month+".csv", month.CSV())
	if err != nil {
		return "", err
	}
	return month.Markdown() + link, nil
}

// MemberReportKey names a single member's report from their free-text name.
func MemberReportKey(month, player string) string {
	return "reports/member/" + month + "/" + slug.Make(player) + ".csv"
}

// MemberReport publishes one member's month row.
func (rs *ReportService) MemberReport(ctx context.Context, month string, stats *models.MonthStats) (string, error) {
	single := models.NewMonth(month, 0, []*models.MonthStats{stats})
	link, err := rs.Publish(ctx, MemberReportKey(month, stats.Player), single.CSV())
	if err != nil {
		return "", err
	}
	return stats.Markdown(month) + link, nil
}
