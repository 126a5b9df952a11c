package routes

import (
	"github.com/gorilla/mux"

	"irus/controllers"
)

// RegisterInvasionRoutes sets up routes for invasions under /invasions
func RegisterInvasionRoutes(r *mux.Router, controller *controllers.InvasionController) {
	if controller == nil {
		return
	}
	invasionRouter := r.PathPrefix("/invasions").Subrouter()
	invasionRouter.HandleFunc("", controller.ListInvasions).Methods("GET")
	invasionRouter.HandleFunc("", controller.CreateInvasion).Methods("POST")
	invasionRouter.HandleFunc("/{invasion}", controller.GetInvasion).Methods("GET")
	invasionRouter.HandleFunc("/{invasion}", controller.UpdateInvasion).Methods("PUT")
	invasionRouter.HandleFunc("/{invasion}", controller.DeleteInvasion).Methods("DELETE")
}
