package http

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"flockApp/domain"
	"flockApp/errs"
	"flockApp/monitoring"
)

func (s *Server) registerUserRoutes(r *mux.Router) {
	// Get the profile data of a specific user.
	r.HandleFunc("/users/profile/{username}", s.requireAuth(s.handleGetProfile)).Methods("GET")

	// Get a handful of users worth following.
	r.HandleFunc("/users/suggested", s.requireAuth(s.handleSuggested)).Methods("GET")

	// Toggle the follow edge towards another user.
	r.HandleFunc("/users/follow/{id:[0-9]+}", s.requireAuth(s.handleToggleFollow)).Methods("POST")

	// Update the authed user's profile.
	r.HandleFunc("/users/update", s.requireAuth(s.handleUpdateProfile)).Methods("POST")
}

// handleGetProfile handles the route "GET /api/users/profile/{username}".
// It returns the user record matching the username, with follower, followed
// and post counts, and whether the authed user is following them.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	user, err := s.us.ByUsername(username)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	authedUser := s.getUserFromContext(r)
	if authedUser.ID != user.ID {
		following, err := s.fs.Exists(authedUser.ID, user.ID)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		user.Following = following
	}

	if err := s.setUserAssociationCounts(user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(user); err != nil {
		errs.LogError(r, err)
		return
	}
}

// handleSuggested handles the route "GET /api/users/suggested".
// It returns a random selection of users the authed user doesn't follow yet.
func (s *Server) handleSuggested(w http.ResponseWriter, r *http.Request) {
	authedUser := s.getUserFromContext(r)

	suggested, err := s.us.Suggested(authedUser.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(suggested); err != nil {
		errs.LogError(r, err)
		return
	}
}

// handleToggleFollow handles the route "POST /api/users/follow/{id}".
// One call follows the target user and notifies them, the next one unfollows.
func (s *Server) handleToggleFollow(w http.ResponseWriter, r *http.Request) {
	followedID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	follower := s.getUserFromContext(r)
	_, following, err := s.fs.Toggle(follower.ID, followedID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	message := "User unfollowed successfully!"
	if following {
		message = "User followed successfully!"
		monitoring.FollowsToggled.WithLabelValues("followed").Inc()
	} else {
		monitoring.FollowsToggled.WithLabelValues("unfollowed").Inc()
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"following": following,
		"message":   message,
	})
}

// handleUpdateProfile handles the route "POST /api/users/update".
// It applies a partial update to the authed user's record. Image payloads
// are stored through the media service first; if the user already had an
// avatar or header, the old file is destroyed before the new URL is saved.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid update data."))
		return
	}

	user := s.getUserFromContext(r)

	if upd.Avatar != "" {
		url, err := s.swapImage(user.Avatar, upd.Avatar)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		upd.Avatar = url
	}
	if upd.Header != "" {
		url, err := s.swapImage(user.Header, upd.Header)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		upd.Header = url
	}

	updated, err := s.us.UpdateProfile(user.ID, &upd)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := s.setUserAssociationCounts(updated); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(updated); err != nil {
		errs.LogError(r, err)
		return
	}
}

// swapImage stores a new image payload and, if the user already had one under
// oldURL, destroys the old file. It returns the URL of the stored image.
func (s *Server) swapImage(oldURL, payload string) (string, error) {
	img, err := decodeImagePayload(payload)
	if err != nil {
		return "", err
	}
	if oldURL != "" {
		if err := s.is.Destroy(domain.PublicID(oldURL)); err != nil {
			return "", err
		}
	}
	if err := s.is.Upload(img); err != nil {
		return "", err
	}
	return img.URL, nil
}

// decodeImagePayload turns a base64 image payload (with or without a leading
// data-URI prefix) into an Image ready for the media store. The filename is
// provisional; the store assigns the definitive one during validation.
func decodeImagePayload(payload string) (*domain.Image, error) {
	if idx := strings.Index(payload, ";base64,"); idx >= 0 {
		payload = payload[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errs.Errorf(errs.EINVALID, "Invalid image payload, must be base64 encoded.")
	}

	ext := ".png"
	if http.DetectContentType(data) == "image/jpeg" {
		ext = ".jpeg"
	}
	return &domain.Image{
		File:     bytes.NewReader(data),
		Filename: "upload" + ext,
	}, nil
}

// setUserAssociationCounts takes a pointer to a user object and fills in its
// follower, followed and post counts.
func (s *Server) setUserAssociationCounts(user *domain.User) error {
	followerCount, err := s.us.CountFollowers(user.ID)
	if err != nil {
		return err
	}
	user.FollowerCount = followerCount

	followedCount, err := s.us.CountFolloweds(user.ID)
	if err != nil {
		return err
	}
	user.FollowedCount = followedCount

	postCount, err := s.ps.CountByUser(user.ID)
	if err != nil {
		return err
	}
	user.PostCount = postCount

	return nil
}
