package controllers

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"irus/models"
)

type interactionHarness struct {
	*fixture
	controller *InteractionController
	private    ed25519.PrivateKey
}

func newInteractionHarness(t *testing.T) *interactionHarness {
	t.Helper()
	f := newFixture(t)
	public, private, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &interactionHarness{
		fixture: f,
		private: private,
		controller: &InteractionController{
			PublicKey:  public,
			Command:    "irus",
			Location:   f.loc,
			Now:        func() time.Time { return f.now },
			ProcessARN: "arn:process",
			Invasions:  f.invasions,
			Members:    f.members,
			Ladders:    f.ladders,
			Months:     f.months,
			Reports:    f.reports,
			Discord:    f.discord,
			Workflows:  f.starter,
			Logger:     zap.NewNop(),
		},
	}
}

type interactionReply struct {
	Type int `json:"type"`
	Data struct {
		Content string `json:"content"`
	} `json:"data"`
}

// send signs body with key and posts it to the controller.
func (h *interactionHarness) send(t *testing.T, key ed25519.PrivateKey, body []byte) (int, interactionReply) {
	t.Helper()
	ts := strconv.FormatInt(h.now.Unix(), 10)
	sig := ed25519.Sign(key, append([]byte(ts), body...))

	req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader(body))
	req.Header.Set("X-Signature-Ed25519", hex.EncodeToString(sig))
	req.Header.Set("X-Signature-Timestamp", ts)
	rec := httptest.NewRecorder()
	h.controller.HandleInteraction(rec, req)

	var reply interactionReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return rec.Code, reply
}

type opt = map[string]interface{}

// command builds a signed-ready /irus <group> <sub> interaction.
func command(group, sub string, options []opt, resolved opt) []byte {
	data := opt{
		"id":   "cmd",
		"name": "irus",
		"type": 1,
		"options": []opt{{
			"name": group,
			"type": int(discordgo.ApplicationCommandOptionSubCommandGroup),
			"options": []opt{{
				"name":    sub,
				"type":    int(discordgo.ApplicationCommandOptionSubCommand),
				"options": options,
			}},
		}},
	}
	if resolved != nil {
		data["resolved"] = resolved
	}
	body, _ := json.Marshal(opt{
		"id":             "interaction",
		"application_id": "app",
		"type":           int(discordgo.InteractionApplicationCommand),
		"token":          "tok",
		"version":        1,
		"data":           data,
	})
	return body
}

func intOpt(name string, v int) opt { return opt{"name": name, "type": 4, "value": v} }
func strOpt(name, v string) opt { return opt{"name": name, "type": 3, "value": v} }
func boolOpt(name string, v bool) opt { return opt{"name": name, "type": 5, "value": v} }
func fileOpt(name, id string) opt { return opt{"name": name, "type": 11, "value": id} }
func attachments(ids ...string) opt {
	all := opt{}
	for _, id := range ids {
		all[id] = opt{"id": id, "filename": id + ".png", "url": "https://cdn.example/" + id + ".png"}
	}
	return opt{"attachments": all}
}

func TestInteractionBadSignature(t *testing.T) {
	h := newInteractionHarness(t)
	_, other, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	code, reply := h.send(t, other, []byte(`{"type":1}`))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, reply.Data.Content, "Bad Signature")
}

func TestInteractionPing(t *testing.T) {
	h := newInteractionHarness(t)
	code, reply := h.send(t, h.private, []byte(`{"id":"1","type":1,"token":"tok","version":1}`))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int(discordgo.InteractionResponsePong), reply.Type)
}

func TestInteractionWrongCommand(t *testing.T) {
	h := newInteractionHarness(t)
	h.controller.Command = "other"
	code, reply := h.send(t, h.private, command("invasion", "list", nil, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Unexpected interaction type 2", reply.Data.Content)
}

func TestInvasionAddAndList(t *testing.T) {
	h := newInteractionHarness(t)
	add := command("invasion", "add", []opt{
		intOpt("day", 1), intOpt("month", 3), intOpt("year", 2024),
		strOpt("settlement", "bw"), boolOpt("win", true),
	}, nil)

	code, reply := h.send(t, h.private, add)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int(discordgo.InteractionResponseChannelMessageWithSource), reply.Type)
	assert.Equal(t, "Registered invasion 20240301-bw", reply.Data.Content)

	code, reply = h.send(t, h.private, add)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, reply.Data.Content, "Unexpected exception: ")

	_, reply = h.send(t, h.private, command("invasion", "list", nil, nil))
	assert.Equal(t, "# Invasion List for 202403\n- 20240301-bw\n", reply.Data.Content)

	_, reply = h.send(t, h.private, command("invasion", "list", []opt{intOpt("month", 2)}, nil))
	assert.Equal(t, "No invasions found for month of 202402", reply.Data.Content)
}

func TestInvasionAddInvalidSettlement(t *testing.T) {
	h := newInteractionHarness(t)
	code, reply := h.send(t, h.private, command("invasion", "add", []opt{strOpt("settlement", "zz")}, nil))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, reply.Data.Content, "Unexpected exception: ")
}

func TestLaddersUploadStartsWorkflow(t *testing.T) {
	h := newInteractionHarness(t)
	body := command("ladders", "upload", []opt{
		strOpt("settlement", "bw"), boolOpt("win", true), intOpt("day", 1),
		fileOpt("file1", "a"), fileOpt("file2", "b"),
	}, attachments("a", "b"))

	code, reply := h.send(t, h.private, body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int(discordgo.InteractionResponseDeferredChannelMessageWithSource), reply.Type)
	assert.Equal(t, "In Progress: Registered invasion 20240301-bw, next download file(s)", reply.Data.Content)

	require.Len(t, h.starter.inputs, 1)
	assert.Equal(t, "arn:process", h.starter.arns[0])
	in, ok := h.starter.inputs[0].(*models.ProcessInput)
	require.True(t, ok)
	assert.Equal(t, "https://discord.com/api/v10/webhooks/app/tok", in.Post)
	assert.Equal(t, "ladders/20240301-bw/", in.Folder)
	assert.Equal(t, models.ProcessLadder, in.Process)
	assert.Equal(t, "202403", in.Month)
	require.Len(t, in.Files, 2)
	assert.Equal(t, "a.png", in.Files[0].Filename)
	assert.Equal(t, "https://cdn.example/b.png", in.Files[1].URL)

	// registering again keeps the existing invasion
	_, reply = h.send(t, h.private, body)
	assert.Equal(t, "In Progress: Registered invasion 20240301-bw, next download file(s)", reply.Data.Content)
}

func TestRosterUploadUsesRosterFolder(t *testing.T) {
	h := newInteractionHarness(t)
	body := command("roster", "upload", []opt{
		strOpt("settlement", "ef"), intOpt("day", 2), fileOpt("file1", "r"),
	}, attachments("r"))

	_, reply := h.send(t, h.private, body)
	assert.Equal(t, "In Progress: Registered invasion 20240302-ef, next download file(s)", reply.Data.Content)
	in := h.starter.inputs[0].(*models.ProcessInput)
	assert.Equal(t, "roster/20240302-ef/", in.Folder)
	assert.Equal(t, models.ProcessRoster, in.Process)
}

func TestScreenshotsNeedRegisteredInvasion(t *testing.T) {
	h := newInteractionHarness(t)
	body := command("invasion", "screenshots", []opt{strOpt("invasion", "20240301-bw"), fileOpt("file1", "a")}, attachments("a"))

	code, reply := h.send(t, h.private, body)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, reply.Data.Content, "Unexpected exception: ")
	assert.Empty(t, h.starter.inputs)

	h.addInvasion(t, 1, "bw")
	_, reply = h.send(t, h.private, body)
	assert.Equal(t, "In Progress: Downloading and processing screenshot(s)", reply.Data.Content)
	assert.Equal(t, models.ProcessLadder, h.starter.inputs[0].(*models.ProcessInput).Process)
}

func TestScreenshotsWorkflowFailure(t *testing.T) {
	h := newInteractionHarness(t)
	h.addInvasion(t, 1, "bw")
	h.starter.err = errors.New("throttled")

	body := command("invasion", "ladder", []opt{strOpt("invasion", "20240301-bw"), fileOpt("file1", "a")}, attachments("a"))
	code, reply := h.send(t, h.private, body)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, reply.Data.Content, "Failed to call process step function: throttled")
}

func TestScreenshotsMissingAttachment(t *testing.T) {
	h := newInteractionHarness(t)
	h.addInvasion(t, 1, "bw")
	body := command("invasion", "screenshots", []opt{strOpt("invasion", "20240301-bw"), fileOpt("file1", "gone")}, attachments("a"))

	code, reply := h.send(t, h.private, body)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, reply.Data.Content, "attachment gone")
}

func TestInvasionInvalidSubcommand(t *testing.T) {
	h := newInteractionHarness(t)
	_, reply := h.send(t, h.private, command("invasion", "nope", nil, nil))
	assert.Equal(t, "Invalid command nope", reply.Data.Content)

	_, reply = h.send(t, h.private, command("unknown", "x", nil, nil))
	assert.Equal(t, "Unexpected subcommand unknown", reply.Data.Content)
}

func TestInvasionEdit(t *testing.T) {
	h := newInteractionHarness(t)
	h.addInvasion(t, 1, "bw")
	h.addRank(t, "20240301-bw", 1, "Ann", 100, false)

	_, reply := h.send(t, h.private, command("invasion", "edit", []opt{
		strOpt("invasion", "20240301-bw"), intOpt("rank", 1), boolOpt("member", true),
	}, nil))
	assert.Contains(t, reply.Data.Content, "Updating rank 1 in invasion 20240301-bw: ")
	assert.Contains(t, reply.Data.Content, "member false -> true")

	r, err := h.ladders.GetRank(context.Background(), "20240301-bw", 1)
	require.NoError(t, err)
	assert.True(t, r.Member)
	assert.True(t, r.Adjusted)
}

func TestMemberAddFlagsLadders(t *testing.T) {
	h := newInteractionHarness(t)
	h.addInvasion(t, 1, "bw")
	h.addRank(t, "20240301-bw", 1, "Ann", 100, false)

	_, reply := h.send(t, h.private, command("member", "add", []opt{
		strOpt("player", "Ann"), strOpt("faction", "covenant"),
		intOpt("day", 1), intOpt("month", 2), intOpt("year", 2024),
	}, nil))
	assert.Contains(t, reply.Data.Content, "# New member Ann\n")

	m, err := h.members.Get(context.Background(), "Ann")
	require.NoError(t, err)
	assert.True(t, m.Salary)
	assert.Equal(t, 20240201, m.Start)

	r, err := h.ladders.GetRank(context.Background(), "20240301-bw", 1)
	require.NoError(t, err)
	assert.True(t, r.Member)
}

func TestMemberRemove(t *testing.T) {
	h := newInteractionHarness(t)
	_, reply := h.send(t, h.private, command("member", "remove", []opt{strOpt("player", "Bob")}, nil))
	assert.Equal(t, "*Member Bob not found, nothing to remove*", reply.Data.Content)

	h.addMember(t, "Bob", "syndicate")
	_, reply = h.send(t, h.private, command("member", "remove", []opt{strOpt("player", "Bob")}, nil))
	assert.Equal(t, "## Removed member Bob", reply.Data.Content)
}

func TestMemberList(t *testing.T) {
	h := newInteractionHarness(t)
	_, reply := h.send(t, h.private, command("member", "list", nil, nil))
	assert.Equal(t, "No members found", reply.Data.Content)

	h.addMember(t, "Ann", "covenant")
	code, reply := h.send(t, h.private, command("member", "list", nil, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "In Progress: Posting member list", reply.Data.Content)
	require.Len(t, h.starter.inputs, 1)
	assert.Equal(t, "arn:post", h.starter.arns[0])
	in, ok := h.starter.inputs[0].(models.PostTableInput)
	require.True(t, ok)
	assert.Equal(t, "https://discord.com/api/v10/webhooks/app/tok", in.Post)
	assert.Contains(t, in.Msg[0], "# Members")
}

func TestReportInvasion(t *testing.T) {
	h := newInteractionHarness(t)
	_, reply := h.send(t, h.private, command("report", "invasion", nil, nil))
	assert.Equal(t, "Missing invasion from request", reply.Data.Content)

	_, reply = h.send(t, h.private, command("report", "invasion", []opt{strOpt("invasion", "20240301-bw")}, nil))
	assert.Equal(t, "No ladder found for invasion 20240301-bw", reply.Data.Content)

	h.addRank(t, "20240301-bw", 1, "Ann", 100, true)
	_, reply = h.send(t, h.private, command("report", "invasion", []opt{strOpt("invasion", "20240301-bw")}, nil))
	assert.Contains(t, reply.Data.Content, "Found 1 members from 1 participants.")
	assert.Contains(t, reply.Data.Content, "https://bucket.example/reports/invasion/20240301-bw.csv")
}

func TestReportMemberNotFound(t *testing.T) {
	h := newInteractionHarness(t)
	_, reply := h.send(t, h.private, command("report", "member", []opt{strOpt("player", "Ann"), intOpt("month", 2)}, nil))
	assert.Equal(t, "No data found for player Ann in month 202402", reply.Data.Content)
}

func TestReportMembers(t *testing.T) {
	h := newInteractionHarness(t)
	h.addMember(t, "Ann", "covenant")
	_, reply := h.send(t, h.private, command("report", "members", nil, nil))
	assert.Contains(t, reply.Data.Content, "# 1 Members\n")
	_, ok := h.bucket.objects["reports/members/20240305101500.csv"]
	assert.True(t, ok)
}

func TestInvasionListLongIsPosted(t *testing.T) {
	h := newInteractionHarness(t)
	for _, settlement := range []string{"bw", "ef", "mb", "rw", "ww"} {
		for day := 1; day <= 31; day++ {
			h.addInvasion(t, day, settlement)
		}
	}

	_, reply := h.send(t, h.private, command("invasion", "list", nil, nil))
	assert.Equal(t, "In Progress: Posting invasion list", reply.Data.Content)
	require.Len(t, h.starter.inputs, 1)
	in := h.starter.inputs[0].(models.PostTableInput)
	assert.Equal(t, 2, in.Count)
	assert.True(t, strings.HasPrefix(in.Msg[0], "# Invasion List for 202403\n"))
}
