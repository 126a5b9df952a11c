package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"go.uber.org/zap"

	"irus/models"
)

// TextractAPI is the part of the Textract client used for screenshot OCR.
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Preprocessor enhances a stored screenshot and returns the key of the result.
type Preprocessor interface {
	Preprocess(ctx context.Context, key string) (string, error)
}

// TextractService extracts ladders and rosters from screenshots.
type TextractService struct {
	Client TextractAPI
	Images Preprocessor
	Bucket string
	Logger *zap.Logger
}

func NewTextractService(client TextractAPI, images Preprocessor, bucket string, log *zap.Logger) *TextractService {
	return &TextractService{Client: client, Images: images, Bucket: bucket, Logger: log}
}

// LadderFromImage reads the ladder table in the screenshot at key.
func (ts *TextractService) LadderFromImage(ctx context.Context, invasion string, members *models.MemberList, key string) (*models.Ladder, error) {
	processed, err := ts.Images.Preprocess(ctx, key)
	if err != nil {
		return nil, err
	}
	out, err := ts.Client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document: &types.Document{S3Object: &types.S3Object{
			Bucket: aws.String(ts.Bucket),
			Name:   aws.String(processed),
		}},
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s/%s: %w", ts.Bucket, processed, err)
	}

	rows, err := TableRows(out.Blocks, ts.Bucket, key)
	if err != nil {
		return nil, err
	}
	ranks := LadderRanks(invasion, rows, members, ts.Logger)
	return models.NewLadder(invasion, ranks), nil
}

// LadderFromRoster reads the member names in a roster screenshot at key.
func (ts *TextractService) LadderFromRoster(ctx context.Context, invasion string, members *models.MemberList, key string) (*models.Ladder, error) {
	processed, err := ts.Images.Preprocess(ctx, key)
	if err != nil {
		return nil, err
	}
	out, err := ts.Client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{S3Object: &types.S3Object{
			Bucket: aws.String(ts.Bucket),
			Name:   aws.String(processed),
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detect text in %s/%s: %w", ts.Bucket, processed, err)
	}

	matched := MemberMatch(ReduceList(out.Blocks), members, ts.Logger)
	ranks := make([]*models.LadderRank, 0, len(matched))
	for i, player := range matched {
		ranks = append(ranks, models.FromRoster(invasion, i+1, player))
	}
	return models.NewLadder(invasion, ranks), nil
}

// TableRows maps row index to column index to cell text for the single table in blocks.
func TableRows(blocks []types.Block, bucket, key string) (map[int]map[int]string, error) {
	byID := make(map[string]types.Block, len(blocks))
	var tables []types.Block
	for _, b := range blocks {
		byID[aws.ToString(b.Id)] = b
		if b.BlockType == types.BlockTypeTable {
			tables = append(tables, b)
		}
	}
	switch len(tables) {
	case 0:
		return nil, fmt.Errorf("No invasion ladder not found in %s/%s", bucket, key)
	case 1:
	default:
		return nil, fmt.Errorf("Do not recognise invasion ladder in %s/%s", bucket, key)
	}

	rows := map[int]map[int]string{}
	for _, rel := range tables[0].Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			cell, ok := byID[id]
			if !ok || cell.BlockType != types.BlockTypeCell {
				continue
			}
			row := int(aws.ToInt32(cell.RowIndex))
			col := int(aws.ToInt32(cell.ColumnIndex))
			if rows[row] == nil {
				rows[row] = map[int]string{}
			}
			rows[row][col] = cellText(cell, byID)
		}
	}
	return rows, nil
}

func cellText(cell types.Block, byID map[string]types.Block) string {
	var b strings.Builder
	for _, rel := range cell.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			word, ok := byID[id]
			if !ok || word.BlockType != types.BlockTypeWord {
				continue
			}
			text := aws.ToString(word.Text)
			if strings.Contains(text, ",") && isDigits(strings.ReplaceAll(text, ",", "")) {
				text = `"` + text + `"`
			}
			b.WriteString(text + " ")
		}
	}
	return b.String()
}

// maxNumericDigits bounds OCR numbers well below int overflow.
const maxNumericDigits = 12

// Numeric reads an OCR number, treating o and O as 0 and l and I as 1.
// Digits past maxNumericDigits are noise and ignored.
func Numeric(s string) int {
	n, digits := 0, 0
	for _, c := range s {
		switch c {
		case 'o', 'O':
			c = '0'
		case 'l', 'I':
			c = '1'
		}
		if c >= '0' && c <= '9' {
			if digits == maxNumericDigits {
				break
			}
			n = n*10 + int(c-'0')
			digits++
		}
	}
	return n
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return true
}

// LadderRanks converts table rows into ranks, matching members and fixing OCR rank errors.
func LadderRanks(invasion string, rows map[int]map[int]string, members *models.MemberList, log *zap.Logger) []*models.LadderRank {
	indexes := make([]int, 0, len(rows))
	for i := range rows {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	var ranks []*models.LadderRank
	for _, i := range indexes {
		cols := rows[i]
		offset := 1
		if len(cols) == 8 {
			offset = 0
		}
		if len(cols) < 8 {
			log.Info("skipping row", zap.Int("row", i), zap.Int("columns", len(cols)))
			continue
		}

		player := strings.TrimRightFunc(cols[2+offset], unicode.IsSpace)
		r := &models.LadderRank{
			Partition: models.LadderPartition(invasion),
			Rank:      models.RankString(Numeric(cols[1])),
			Player:    player,
			Score:     Numeric(cols[3+offset]),
			Kills:     Numeric(cols[4+offset]),
			Deaths:    Numeric(cols[5+offset]),
			Assists:   Numeric(cols[6+offset]),
			Heals:     Numeric(cols[7+offset]),
			Damage:    Numeric(cols[8+offset]),
			Ladder:    true,
		}
		if name, ok := members.IsMember(player, false); ok {
			r.Player, r.Member = name, true
		} else if name, ok := members.IsMember(player, true); ok {
			r.Player, r.Member, r.Adjusted = name, true, true
		}

		if r.Score == 0 {
			log.Info("skipping row with no score", zap.Int("row", i), zap.String("player", r.Player))
			continue
		}
		ranks = append(ranks, r)
	}

	if len(ranks) > 3 {
		fixRanks(ranks, log)
	}
	return ranks
}

func fixRanks(ranks []*models.LadderRank, log *zap.Logger) {
	for _, r := range ranks {
		if r.Position() > 99 {
			log.Info("fixing rank size", zap.String("from", r.Rank), zap.String("to", r.Rank[:2]))
			r.Rank = r.Rank[:2]
			r.Adjusted = true
		}
	}
	for i := 0; i < len(ranks)-1; i++ {
		if ranks[i].Position() > ranks[i+1].Position() {
			if ranks[i+1].Position() <= 1 {
				log.Warn("cannot fix rank order", zap.String("rank", ranks[i].Rank), zap.String("next", ranks[i+1].Rank))
				ranks[i].Error = true
				continue
			}
			fixed := models.RankString(ranks[i+1].Position() - 1)
			log.Info("fixing rank order", zap.String("from", ranks[i].Rank), zap.String("to", fixed))
			ranks[i].Rank = fixed
			ranks[i].Adjusted = true
		}
	}
	pos := ranks[0].Position()
	for _, r := range ranks[1:] {
		pos++
		if r.Position() != pos {
			log.Warn("unexpected rank", zap.String("rank", r.Rank), zap.Int("expected", pos))
			r.Error = true
		}
	}
}

// ReduceList keeps the text of a roster scan that could be a player name.
func ReduceList(blocks []types.Block) []string {
	var out []string
	for _, b := range blocks {
		if b.BlockType == types.BlockTypePage {
			continue
		}
		text := aws.ToString(b.Text)
		if isDigits(text) || text == ":" || strings.HasPrefix(text, "GROUP") {
			continue
		}
		out = append(out, text)
	}
	return out
}

// MemberMatch returns the sorted, unique members partially matching the candidates.
func MemberMatch(candidates []string, members *models.MemberList, log *zap.Logger) []string {
	unique := uniqueSorted(candidates)

	var matched, unmatched []string
	for _, c := range unique {
		if player, ok := members.IsMember(c, true); ok {
			matched = append(matched, player)
		} else {
			unmatched = append(unmatched, c)
		}
	}
	matched = uniqueSorted(matched)
	log.Debug("roster match", zap.Strings("matched", matched), zap.Strings("unmatched", unmatched))
	return matched
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
