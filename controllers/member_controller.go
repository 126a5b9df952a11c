package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"irus/helpers"
	"irus/models"
	"irus/services"
)

// MemberController serves the member REST endpoints.
type MemberController struct {
	Members   *services.MemberService
	Invasions *services.InvasionService
	Ladders   *services.LadderService
	Location  *time.Location
	Logger    *zap.Logger
}

func NewMemberController(members *services.MemberService, invasions *services.InvasionService, ladders *services.LadderService, loc *time.Location, log *zap.Logger) *MemberController {
	return &MemberController{Members: members, Invasions: invasions, Ladders: ladders, Location: loc, Logger: log}
}

// ListMembers handles GET /members, optionally filtered by ?faction=.
func (c *MemberController) ListMembers(w http.ResponseWriter, r *http.Request) {
	list, err := c.Members.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	members := list.Members
	if faction := r.URL.Query().Get("faction"); faction != "" {
		members = members[:0:0]
		for _, m := range list.Members {
			if m.Faction == faction {
				members = append(members, m)
			}
		}
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"count":   len(members),
		"members": members,
	})
}

// GetMember handles GET /members/{player}.
func (c *MemberController) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := c.Members.Get(r.Context(), mux.Vars(r)["player"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, m)
}

// CreateMember handles POST /members. The start date defaults to today.
func (c *MemberController) CreateMember(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Player  string `json:"player"`
		Day     int    `json:"day"`
		Month   int    `json:"month"`
		Year    int    `json:"year"`
		Faction string `json:"faction"`
		Admin   bool   `json:"admin"`
		Salary  *bool  `json:"salary"`
		Discord string `json:"discord"`
		Notes   string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	now := time.Now().In(c.Location)
	if request.Day == 0 {
		request.Day = now.Day()
	}
	if request.Month == 0 {
		request.Month = int(now.Month())
	}
	if request.Year == 0 {
		request.Year = now.Year()
	}
	salary := request.Salary == nil || *request.Salary

	m, err := models.NewMember(request.Player, request.Day, request.Month, request.Year,
		request.Faction, request.Admin, salary, request.Discord, request.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := c.Members.Create(r.Context(), m); err != nil {
		writeServiceError(w, err)
		return
	}

	invasions, err := c.Invasions.ListFromStart(r.Context(), m.Start)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	flagged, err := c.Ladders.FlagNewMember(r.Context(), invasions, m.Player)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	c.Logger.Info("added member", zap.String("player", m.Player))
	helpers.WriteJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message": m.Markdown() + flagged,
		"member":  m,
	})
}

// RemoveMember handles DELETE /members/{player}.
func (c *MemberController) RemoveMember(w http.ResponseWriter, r *http.Request) {
	msg, err := c.Members.RemoveWithAudit(r.Context(), mux.Vars(r)["player"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": msg})
}

// ListEvents handles GET /members/events.
func (c *MemberController) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := c.Members.Events(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, events)
}
