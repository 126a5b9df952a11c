package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"irus/helpers"
	"irus/models"
	"irus/services"
)

// InvasionController serves the invasion REST endpoints.
type InvasionController struct {
	Invasions *services.InvasionService
	Location  *time.Location
	Logger    *zap.Logger
}

func NewInvasionController(invasions *services.InvasionService, loc *time.Location, log *zap.Logger) *InvasionController {
	return &InvasionController{Invasions: invasions, Location: loc, Logger: log}
}

// ListInvasions handles GET /invasions, filtered by month, settlement or a from/to date range.
func (c *InvasionController) ListInvasions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var invasions []*models.Invasion
	var err error
	switch {
	case q.Get("settlement") != "":
		invasions, err = c.Invasions.ListBySettlement(r.Context(), q.Get("settlement"))
	case q.Get("from") != "":
		from, ferr := strconv.Atoi(q.Get("from"))
		to, terr := strconv.Atoi(q.Get("to"))
		if ferr != nil || (q.Get("to") != "" && terr != nil) {
			helpers.WriteErrorResponse(w, http.StatusBadRequest, "from and to must be YYYYMMDD")
			return
		}
		if q.Get("to") == "" {
			invasions, err = c.Invasions.ListFromStart(r.Context(), from)
		} else {
			invasions, err = c.Invasions.ListByDateRange(r.Context(), from, to)
		}
	default:
		month := q.Get("month")
		if month == "" {
			month = time.Now().In(c.Location).Format(models.MonthLayout)
		}
		if !models.ValidMonth(month) {
			helpers.WriteErrorResponse(w, http.StatusBadRequest, "month must be YYYYMM")
			return
		}
		invasions, err = c.Invasions.ListByMonth(r.Context(), month)
	}
	if err != nil {
		c.Logger.Error("failed to list invasions", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"count":     len(invasions),
		"invasions": invasions,
	})
}

// CreateInvasion handles POST /invasions.
func (c *InvasionController) CreateInvasion(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Day        int    `json:"day"`
		Month      int    `json:"month"`
		Year       int    `json:"year"`
		Settlement string `json:"settlement"`
		Win        bool   `json:"win"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	inv, err := models.NewInvasion(request.Day, request.Month, request.Year, request.Settlement, request.Win, request.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := c.Invasions.Create(r.Context(), inv); err != nil {
		writeServiceError(w, err)
		return
	}
	c.Logger.Info("registered invasion", zap.String("invasion", inv.Name))
	helpers.WriteJSONResponse(w, http.StatusCreated, map[string]interface{}{
		"message":  "Registered invasion " + inv.Name,
		"invasion": inv,
	})
}

// GetInvasion handles GET /invasions/{invasion}.
func (c *InvasionController) GetInvasion(w http.ResponseWriter, r *http.Request) {
	inv, err := c.Invasions.Get(r.Context(), mux.Vars(r)["invasion"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, inv)
}

// UpdateInvasion handles PUT /invasions/{invasion}, changing the result or notes.
func (c *InvasionController) UpdateInvasion(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Win   *bool   `json:"win"`
		Notes *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	inv, err := c.Invasions.Get(r.Context(), mux.Vars(r)["invasion"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if request.Win != nil {
		inv.Win = *request.Win
	}
	if request.Notes != nil {
		inv.Notes = strings.TrimSpace(*request.Notes)
	}
	if err := models.Validate(inv); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := c.Invasions.Save(r.Context(), inv); err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, inv)
}

// DeleteInvasion handles DELETE /invasions/{invasion}.
func (c *InvasionController) DeleteInvasion(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["invasion"]
	if err := c.Invasions.Delete(r.Context(), name); err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Deleted invasion " + name})
}
