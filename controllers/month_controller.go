package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"irus/helpers"
	"irus/models"
	"irus/services"
)

// MonthController serves monthly statistics and publishes month reports.
type MonthController struct {
	Months  *services.MonthService
	Reports *services.ReportService
	Logger  *zap.Logger
}

func NewMonthController(months *services.MonthService, reports *services.ReportService, log *zap.Logger) *MonthController {
	return &MonthController{Months: months, Reports: reports, Logger: log}
}

func monthVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	month := mux.Vars(r)["month"]
	if !models.ValidMonth(month) {
		helpers.WriteErrorResponse(w, http.StatusBadRequest, "month must be YYYYMM")
		return "", false
	}
	return month, true
}

// GetMonth handles GET /month/{month}.
func (c *MonthController) GetMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthVar(w, r)
	if !ok {
		return
	}
	m, err := c.Months.Get(r.Context(), month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, m)
}

// GetMemberMonth handles GET /month/{month}/{player}.
func (c *MonthController) GetMemberMonth(w http.ResponseWriter, r *http.Request) {
	month, ok := monthVar(w, r)
	if !ok {
		return
	}
	player := mux.Vars(r)["player"]
	stats, err := c.Months.MemberStats(r.Context(), month, player)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	msg, err := c.Months.MemberReport(r.Context(), month, player)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"stats":   stats,
		"message": msg,
	})
}

// PublishMonthReport handles POST /reports/month/{month}.
func (c *MonthController) PublishMonthReport(w http.ResponseWriter, r *http.Request) {
	month, ok := monthVar(w, r)
	if !ok {
		return
	}
	m, err := c.Months.Build(r.Context(), month)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	msg, err := c.Reports.MonthReport(r.Context(), m)
	if err != nil {
		c.Logger.Error("failed to publish month report", zap.String("month", month), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": msg,
		"month":   m,
	})
}
