package routes

import (
	"github.com/gorilla/mux"

	"irus/controllers"
)

// RegisterInteractionRoutes mounts the Discord interactions endpoint.
func RegisterInteractionRoutes(r *mux.Router, controller *controllers.InteractionController) {
	if controller == nil {
		return
	}
	r.HandleFunc("/interactions", controller.HandleInteraction).Methods("POST")
}
