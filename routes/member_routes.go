package routes

import (
	"github.com/gorilla/mux"

	"irus/controllers"
)

// RegisterMemberRoutes sets up routes for members under /members
func RegisterMemberRoutes(r *mux.Router, controller *controllers.MemberController) {
	if controller == nil {
		return
	}
	memberRouter := r.PathPrefix("/members").Subrouter()
	memberRouter.HandleFunc("", controller.ListMembers).Methods("GET")
	memberRouter.HandleFunc("", controller.CreateMember).Methods("POST")
	// registered before /{player} so "events" is not taken as a player name
	memberRouter.HandleFunc("/events", controller.ListEvents).Methods("GET")
	memberRouter.HandleFunc("/{player}", controller.GetMember).Methods("GET")
	memberRouter.HandleFunc("/{player}", controller.RemoveMember).Methods("DELETE")
}
