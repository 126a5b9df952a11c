package routes

import (
	"github.com/gorilla/mux"

	"irus/controllers"
)

// Controllers holds every controller served by the router.
type Controllers struct {
	Interactions *controllers.InteractionController
	Invasions    *controllers.InvasionController
	Ladders      *controllers.LadderController
	Members      *controllers.MemberController
	Months       *controllers.MonthController
}

// NewRouter builds the router shared by the bot Lambda and the local server.
func NewRouter(c Controllers) *mux.Router {
	r := mux.NewRouter()
	RegisterRoutes(r, c)
	return r
}

// RegisterRoutes sets up the routes for the application
func RegisterRoutes(r *mux.Router, c Controllers) {
	r.HandleFunc("/health", controllers.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/privacy-policy", PrivacyPolicyHandler).Methods("GET")

	RegisterInteractionRoutes(r, c.Interactions)
	RegisterInvasionRoutes(r, c.Invasions)
	RegisterLadderRoutes(r, c.Ladders)
	RegisterMemberRoutes(r, c.Members)
	RegisterMonthRoutes(r, c.Months)
}
