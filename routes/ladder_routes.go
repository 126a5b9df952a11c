package routes

import (
	"github.com/gorilla/mux"

	"irus/controllers"
)

// RegisterLadderRoutes sets up the ladder JSON, CSV and summary routes
func RegisterLadderRoutes(r *mux.Router, controller *controllers.LadderController) {
	if controller == nil {
		return
	}
	r.HandleFunc("/ladder/{invasion}", controller.GetLadder).Methods("GET")
	r.HandleFunc("/ladder/{invasion}/{rank:[0-9]+}", controller.EditRank).Methods("PATCH")
	r.HandleFunc("/csv/{invasion}", controller.GetLadderCSV).Methods("GET")
	r.HandleFunc("/summary/{invasion}", controller.GetSummary).Methods("GET")
}
