package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"flockApp/domain"
	"flockApp/errs"
	"flockApp/monitoring"
)

func (s *Server) registerPostRoutes(r *mux.Router) {
	r.HandleFunc("/posts/create", s.requireAuth(s.handleCreatePost)).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}", s.requireAuth(s.handleDeletePost)).Methods("DELETE")
	r.HandleFunc("/posts/comment/{id:[0-9]+}", s.requireAuth(s.handleCommentPost)).Methods("POST")
	r.HandleFunc("/posts/like/{id:[0-9]+}", s.requireAuth(s.handleToggleLike)).Methods("POST")
	r.HandleFunc("/posts/all", s.requireAuth(s.handleAllPosts)).Methods("GET")
	r.HandleFunc("/posts/likes/{id:[0-9]+}", s.requireAuth(s.handleLikedPosts)).Methods("GET")
	r.HandleFunc("/posts/user/{username}", s.requireAuth(s.handleUserPosts)).Methods("GET")
	r.HandleFunc("/posts/following", s.requireAuth(s.handleFollowingPosts)).Methods("GET")
}

// handleCreatePost handles the route "POST /api/posts/create".
// It reads text and an optional base64 image payload from the json body,
// stores the image through the media service, and creates the post.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid post data."))
		return
	}

	user := s.getUserFromContext(r)
	post := domain.Post{
		UserID: user.ID,
		Text:   input.Text,
	}

	if input.Image != "" {
		img, err := decodeImagePayload(input.Image)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		if err := s.is.Upload(img); err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		post.Image = img.URL
	}

	if err := s.ps.Create(&post); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	monitoring.PostsCreated.Inc()

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(&post); err != nil {
		errs.LogError(r, err)
		return
	}
}

// handleDeletePost handles the route "DELETE /api/posts/{id}".
// Only the post's owner may delete it. The stored post image, if any,
// is destroyed along with the record.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	post, err := s.ps.ByID(id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	user := s.getUserFromContext(r)
	if post.UserID != user.ID {
		errs.ReturnError(w, r, errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to delete this post."))
		return
	}

	if post.Image != "" {
		if err := s.is.Destroy(domain.PublicID(post.Image)); err != nil {
			errs.ReturnError(w, r, err)
			return
		}
	}
	if err := s.ps.Delete(post); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Post deleted successfully!"})
}

// handleCommentPost handles the route "POST /api/posts/comment/{id}".
func (s *Server) handleCommentPost(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	var comment domain.Comment
	if err := json.NewDecoder(r.Body).Decode(&comment); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid comment data."))
		return
	}

	user := s.getUserFromContext(r)
	comment.PostID = id
	comment.UserID = user.ID

	if err := s.ps.Comment(&comment); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(&comment); err != nil {
		errs.LogError(r, err)
		return
	}
}

// handleToggleLike handles the route "POST /api/posts/like/{id}".
// One call likes the post and notifies its owner, the next one unlikes.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	user := s.getUserFromContext(r)
	_, liked, err := s.ls.Toggle(user.ID, id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	message := "Post unliked successfully!"
	if liked {
		message = "Post liked successfully!"
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"liked":   liked,
		"message": message,
	})
}

// handleAllPosts handles the route "GET /api/posts/all".
func (s *Server) handleAllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.ps.All()
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.returnPosts(w, r, posts)
}

// handleLikedPosts handles the route "GET /api/posts/likes/{id}".
// It returns the posts liked by the user with the given ID.
func (s *Server) handleLikedPosts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	posts, err := s.ps.LikedBy(id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.returnPosts(w, r, posts)
}

// handleUserPosts handles the route "GET /api/posts/user/{username}".
func (s *Server) handleUserPosts(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	user, err := s.us.ByUsername(username)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	posts, err := s.ps.ByUser(user.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.returnPosts(w, r, posts)
}

// handleFollowingPosts handles the route "GET /api/posts/following".
// It returns the feed of posts from users the authed user follows.
func (s *Server) handleFollowingPosts(w http.ResponseWriter, r *http.Request) {
	user := s.getUserFromContext(r)

	followedIDs, err := s.fs.FollowedIDs(user.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	posts, err := s.ps.ByFollowed(followedIDs)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	s.returnPosts(w, r, posts)
}

// returnPosts writes a slice of posts as the json response body.
func (s *Server) returnPosts(w http.ResponseWriter, r *http.Request, posts []domain.Post) {
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(posts); err != nil {
		errs.LogError(r, err)
		return
	}
}
