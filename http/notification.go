package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"flockApp/errs"
)

func (s *Server) registerNotificationRoutes(r *mux.Router) {
	// Get the authed user's notifications.
	r.HandleFunc("/notifications", s.requireAuth(s.handleGetNotifications)).Methods("GET")

	// Delete all of the authed user's notifications.
	r.HandleFunc("/notifications", s.requireAuth(s.handleDeleteNotifications)).Methods("DELETE")
}

// handleGetNotifications handles the route "GET /api/notifications".
// It returns the authed user's notifications, newest first. Fetching them
// marks them as read.
func (s *Server) handleGetNotifications(w http.ResponseWriter, r *http.Request) {
	user := s.getUserFromContext(r)

	notifications, err := s.ns.ByRecipient(user.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(notifications); err != nil {
		errs.LogError(r, err)
		return
	}
}

// handleDeleteNotifications handles the route "DELETE /api/notifications".
// It deletes all of the authed user's notifications.
func (s *Server) handleDeleteNotifications(w http.ResponseWriter, r *http.Request) {
	user := s.getUserFromContext(r)

	if err := s.ns.DeleteByRecipient(user.ID); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Notifications deleted successfully!"})
}
