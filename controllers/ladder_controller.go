package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"irus/helpers"
	"irus/models"
	"irus/services"
)

// LadderController serves ladder JSON, CSV and completeness checks.
type LadderController struct {
	Ladders *services.LadderService
	Logger  *zap.Logger
}

func NewLadderController(ladders *services.LadderService, log *zap.Logger) *LadderController {
	return &LadderController{Ladders: ladders, Logger: log}
}

// loadLadder writes a 404 and returns nil when the invasion has no ranks.
func (c *LadderController) loadLadder(w http.ResponseWriter, r *http.Request) *models.Ladder {
	invasion := mux.Vars(r)["invasion"]
	ladder, err := c.Ladders.Get(r.Context(), invasion)
	if err != nil {
		c.Logger.Error("failed to load ladder", zap.String("invasion", invasion), zap.Error(err))
		writeServiceError(w, err)
		return nil
	}
	if ladder.Count() == 0 {
		helpers.WriteErrorResponse(w, http.StatusNotFound, fmt.Sprintf("Item %s not found", invasion))
		return nil
	}
	return ladder
}

// GetLadder handles GET /ladder/{invasion}.
func (c *LadderController) GetLadder(w http.ResponseWriter, r *http.Request) {
	if ladder := c.loadLadder(w, r); ladder != nil {
		helpers.WriteJSONResponse(w, http.StatusOK, ladder)
	}
}

// GetLadderCSV handles GET /csv/{invasion}.
func (c *LadderController) GetLadderCSV(w http.ResponseWriter, r *http.Request) {
	if ladder := c.loadLadder(w, r); ladder != nil {
		helpers.WriteTextResponse(w, http.StatusOK, "text/csv", ladder.CSV())
	}
}

// GetSummary handles GET /summary/{invasion}, answering 400 when ranks are missing.
func (c *LadderController) GetSummary(w http.ResponseWriter, r *http.Request) {
	ladder := c.loadLadder(w, r)
	if ladder == nil {
		return
	}
	last := ladder.ContiguousFrom1Until()
	summary := map[string]interface{}{
		"invasion":   ladder.Invasion,
		"ranks":      ladder.Count(),
		"members":    ladder.MemberCount(),
		"contiguous": last,
		"summary":    ladder.String(),
	}
	if last != ladder.Count() {
		summary["error"] = fmt.Sprintf("Missing row %d", last+1)
		helpers.WriteJSONResponse(w, http.StatusBadRequest, summary)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, summary)
}

// EditRank handles PATCH /ladder/{invasion}/{rank}.
func (c *LadderController) EditRank(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rank, err := strconv.Atoi(vars["rank"])
	if err != nil || rank < 1 || rank > 99 {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "rank must be 1-99")
		return
	}
	var request struct {
		NewRank int    `json:"new_rank"`
		Player  string `json:"player"`
		Score   int    `json:"score"`
		Member  *bool  `json:"member"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.NewRank < 0 || request.NewRank > 99 {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "new_rank must be 1-99")
		return
	}

	msg, err := c.Ladders.Edit(r.Context(), vars["invasion"], services.LadderEdit{
		Rank:    rank,
		NewRank: request.NewRank,
		Player:  request.Player,
		Score:   request.Score,
		Member:  request.Member,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": msg})
}
