package controllers

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"irus/helpers"
	"irus/models"
	"irus/services"
)

// InteractionController answers Discord interactions for the bot command.
type InteractionController struct {
	PublicKey  ed25519.PublicKey
	Command    string
	Location   *time.Location
	Now        func() time.Time
	ProcessARN string

	Invasions *services.InvasionService
	Members   *services.MemberService
	Ladders   *services.LadderService
	Months    *services.MonthService
	Reports   *services.ReportService
	Discord   *services.DiscordService
	Workflows services.WorkflowStarter
	Logger    *zap.Logger
}

func (c *InteractionController) today() time.Time {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

// HandleInteraction verifies and answers one interaction. Errors are reported in
// the response body, never as a failed request.
func (c *InteractionController) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	if !discordgo.VerifyInteraction(r, c.PublicKey) {
		c.Logger.Warn("rejected interaction with bad signature")
		writeInteraction(w, http.StatusUnauthorized, "Bad Signature: signature verification failed")
		return
	}

	var in discordgo.Interaction
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		c.Logger.Error("failed to decode interaction", zap.Error(err))
		writeInteraction(w, http.StatusUnauthorized, "Unexpected exception: "+err.Error())
		return
	}

	if in.Type == discordgo.InteractionPing {
		helpers.WriteJSONResponse(w, http.StatusOK, &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})
		return
	}

	if in.Type != discordgo.InteractionApplicationCommand || in.ApplicationCommandData().Name != c.Command {
		writeInteraction(w, http.StatusOK, fmt.Sprintf("Unexpected interaction type %d", in.Type))
		return
	}

	data := in.ApplicationCommandData()
	log := c.Logger.With(zap.String("interaction", in.ID), zap.String("command", commandPath(data.Options)))
	log.Info("received command")

	content, err := c.dispatch(r.Context(), in.Token, data)
	if err != nil {
		log.Error("command failed", zap.Error(err))
		writeInteraction(w, http.StatusUnauthorized, "Unexpected exception: "+err.Error())
		return
	}
	writeInteraction(w, http.StatusOK, content)
}

// writeInteraction sends content as a channel message, deferred while work continues.
func writeInteraction(w http.ResponseWriter, status int, content string) {
	kind := discordgo.InteractionResponseChannelMessageWithSource
	if strings.HasPrefix(content, "In Progress") {
		kind = discordgo.InteractionResponseDeferredChannelMessageWithSource
	}
	helpers.WriteJSONResponse(w, status, &discordgo.InteractionResponse{
		Type: kind,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Embeds:          []*discordgo.MessageEmbed{},
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
}

func commandPath(opts []*discordgo.ApplicationCommandInteractionDataOption) string {
	var parts []string
	for len(opts) > 0 && opts[0].Type <= discordgo.ApplicationCommandOptionSubCommandGroup {
		parts = append(parts, opts[0].Name)
		opts = opts[0].Options
	}
	return strings.Join(parts, " ")
}

func (c *InteractionController) dispatch(ctx context.Context, token string, data discordgo.ApplicationCommandInteractionData) (string, error) {
	if len(data.Options) == 0 || len(data.Options[0].Options) == 0 {
		return "", errors.New("missing subcommand")
	}
	group := data.Options[0]
	sub := group.Options[0]
	opts := optionsOf(sub)

	switch group.Name {
	case "invasion":
		return c.invasionCmd(ctx, token, sub.Name, opts, data.Resolved)
	case "ladders":
		return c.registerAndProcess(ctx, token, opts, data.Resolved, models.ProcessLadder)
	case "roster":
		return c.registerAndProcess(ctx, token, opts, data.Resolved, models.ProcessRoster)
	case "report":
		return c.reportCmd(ctx, sub.Name, opts)
	case "member":
		return c.memberCmd(ctx, token, sub.Name, opts)
	}
	return fmt.Sprintf("Unexpected subcommand %s", group.Name), nil
}

// monthKey reads month and year options as YYYYMM, defaulting to the current month.
func (c *InteractionController) monthKey(opts options) string {
	now := c.today()
	return fmt.Sprintf("%d%02d", opts.integer("year", now.Year()), opts.integer("month", int(now.Month())))
}

func (c *InteractionController) invasionFromOptions(opts options) (*models.Invasion, error) {
	now := c.today()
	return models.NewInvasion(
		opts.integer("day", now.Day()),
		opts.integer("month", int(now.Month())),
		opts.integer("year", now.Year()),
		opts.str("settlement", ""),
		opts.boolean("win", false),
		opts.str("notes", ""),
	)
}

func (c *InteractionController) invasionCmd(ctx context.Context, token, name string, opts options, resolved *discordgo.ApplicationCommandInteractionDataResolved) (string, error) {
	switch name {
	case "list":
		month := c.monthKey(opts)
		invasions, err := c.Invasions.ListByMonth(ctx, month)
		if err != nil {
			return "", err
		}
		msg := services.InvasionListMarkdown(month, invasions)
		if len(msg) <= services.MaxPostLength {
			return msg, nil
		}
		names := make([]string, 0, len(invasions))
		for _, inv := range invasions {
			names = append(names, inv.Name)
		}
		if err := c.Discord.PostTable(ctx, token, names, "# Invasion List for "+month); err != nil {
			return "", err
		}
		return "In Progress: Posting invasion list", nil
	case "add":
		inv, err := c.invasionFromOptions(opts)
		if err != nil {
			return "", err
		}
		if err := c.Invasions.Create(ctx, inv); err != nil {
			return "", err
		}
		return fmt.Sprintf("Registered invasion %s", inv.Name), nil
	case "ladder":
		return c.downloadCmd(ctx, token, opts, resolved, models.ProcessDownload)
	case "screenshots":
		return c.downloadCmd(ctx, token, opts, resolved, models.ProcessLadder)
	case "roster":
		return c.downloadCmd(ctx, token, opts, resolved, models.ProcessRoster)
	case "edit":
		return c.editCmd(ctx, opts)
	}
	c.Logger.Warn("invalid invasion command", zap.String("name", name))
	return fmt.Sprintf("Invalid command %s", name), nil
}

func (c *InteractionController) downloadCmd(ctx context.Context, token string, opts options, resolved *discordgo.ApplicationCommandInteractionDataResolved, process string) (string, error) {
	name := opts.str("invasion", "")
	if name == "" {
		return "", errors.New("no invasion specified")
	}
	if _, err := models.MonthOf(name); err != nil {
		return "", err
	}
	inv, err := c.Invasions.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if err := c.startProcess(ctx, token, inv, opts, resolved, process); err != nil {
		return "", err
	}
	return "In Progress: Downloading and processing screenshot(s)", nil
}

// registerAndProcess registers the invasion when new and then processes its screenshots.
func (c *InteractionController) registerAndProcess(ctx context.Context, token string, opts options, resolved *discordgo.ApplicationCommandInteractionDataResolved, process string) (string, error) {
	inv, err := c.invasionFromOptions(opts)
	if err != nil {
		return "", err
	}
	inv, err = c.Invasions.Register(ctx, inv)
	if err != nil {
		return "", err
	}
	if err := c.startProcess(ctx, token, inv, opts, resolved, process); err != nil {
		return "", err
	}
	return fmt.Sprintf("In Progress: Registered invasion %s, next download file(s)", inv.Name), nil
}

func (c *InteractionController) startProcess(ctx context.Context, token string, inv *models.Invasion, opts options, resolved *discordgo.ApplicationCommandInteractionDataResolved, process string) error {
	files, err := opts.files(resolved)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no files attached")
	}
	in, err := models.NewProcessInput(c.Discord.PostURL(token), inv, files, process)
	if err != nil {
		return err
	}
	if err := c.Workflows.Start(ctx, c.ProcessARN, in); err != nil {
		return fmt.Errorf("Failed to call process step function: %w", err)
	}
	c.Logger.Info("started process workflow", zap.String("invasion", inv.Name),
		zap.String("process", process), zap.Int("files", len(files)))
	return nil
}

func (c *InteractionController) editCmd(ctx context.Context, opts options) (string, error) {
	name := opts.str("invasion", "")
	if _, err := c.Invasions.Get(ctx, name); err != nil {
		return "", err
	}
	edit := services.LadderEdit{
		Rank:    opts.integer("rank", 0),
		NewRank: opts.integer("new_rank", 0),
		Player:  strings.TrimSpace(opts.str("player", "")),
		Score:   opts.integer("score", 0),
	}
	if opts.has("member") {
		member := opts.boolean("member", false)
		edit.Member = &member
	}
	return c.Ladders.Edit(ctx, name, edit)
}

func (c *InteractionController) reportCmd(ctx context.Context, name string, opts options) (string, error) {
	switch name {
	case "month":
		month, err := c.Months.Build(ctx, c.monthKey(opts))
		if err != nil {
			return "", err
		}
		return c.Reports.MonthReport(ctx, month)
	case "invasion":
		invasion := opts.str("invasion", "")
		if invasion == "" {
			return "Missing invasion from request", nil
		}
		ladder, err := c.Ladders.Get(ctx, invasion)
		if err != nil {
			return "", err
		}
		if ladder.Count() == 0 {
			return fmt.Sprintf("No ladder found for invasion %s", invasion), nil
		}
		return c.Reports.InvasionReport(ctx, ladder)
	case "member":
		month := c.monthKey(opts)
		player := opts.str("player", "")
		stats, err := c.Months.MemberStats(ctx, month, player)
		if errors.Is(err, services.ErrItemNotFound) {
			return fmt.Sprintf("No data found for player %s in month %s", player, month), nil
		}
		if err != nil {
			return "", err
		}
		return c.Reports.MemberReport(ctx, month, stats)
	case "members":
		members, err := c.Members.List(ctx)
		if err != nil {
			return "", err
		}
		if members.Count() == 0 {
			return "No members found", nil
		}
		return c.Reports.MembersReport(ctx, members)
	}
	return fmt.Sprintf("Invalid command %s", name), nil
}

func (c *InteractionController) memberCmd(ctx context.Context, token, name string, opts options) (string, error) {
	switch name {
	case "list":
		members, err := c.Members.List(ctx)
		if err != nil {
			return "", err
		}
		if members.Count() == 0 {
			return "No members found", nil
		}
		faction := opts.str("faction", "")
		if err := c.Discord.PostTable(ctx, token, members.Post(faction), "# Members"); err != nil {
			return "", err
		}
		return "In Progress: Posting member list", nil
	case "add":
		return c.memberAdd(ctx, opts)
	case "remove":
		return c.Members.RemoveWithAudit(ctx, strings.TrimSpace(opts.str("player", "")))
	}
	return fmt.Sprintf("Invalid command %s", name), nil
}

// memberAdd registers the member and flags them in the ladders of invasions since they started.
func (c *InteractionController) memberAdd(ctx context.Context, opts options) (string, error) {
	now := c.today()
	m, err := models.NewMember(
		opts.str("player", ""),
		opts.integer("day", now.Day()),
		opts.integer("month", int(now.Month())),
		opts.integer("year", now.Year()),
		opts.str("faction", ""),
		opts.boolean("admin", false),
		opts.boolean("salary", true),
		opts.str("discord", ""),
		opts.str("notes", ""),
	)
	if err != nil {
		return "", err
	}
	if err := c.Members.Create(ctx, m); err != nil {
		return "", err
	}
	msg := fmt.Sprintf("# New member %s\n%s", m.Player, strings.Join(m.Post(), "\n"))

	invasions, err := c.Invasions.ListFromStart(ctx, m.Start)
	if err != nil {
		return "", err
	}
	flagged, err := c.Ladders.FlagNewMember(ctx, invasions, m.Player)
	if err != nil {
		return "", err
	}
	return msg + flagged, nil
}
