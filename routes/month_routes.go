package routes

import (
	"github.com/gorilla/mux"

	"irus/controllers"
)

// RegisterMonthRoutes sets up monthly statistics and report routes
func RegisterMonthRoutes(r *mux.Router, controller *controllers.MonthController) {
	if controller == nil {
		return
	}
	r.HandleFunc("/month/{month}", controller.GetMonth).Methods("GET")
	r.HandleFunc("/month/{month}/{player}", controller.GetMemberMonth).Methods("GET")
	r.HandleFunc("/reports/month/{month}", controller.PublishMonthReport).Methods("POST")
}
