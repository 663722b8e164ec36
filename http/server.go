package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"flockApp/auth"
	"flockApp/crud"
	"flockApp/domain"
	"flockApp/errs"
	"flockApp/monitoring"
)

// Server provides most of the http functionality of this app, namely routing,
// request handling, and middleware. It performs authentication and
// authorization before handing things over to one of the crud services.
type Server struct {
	router *mux.Router
	us     domain.UserService
	fs     domain.FollowService
	ns     domain.NotificationService
	ps     domain.PostService
	ls     domain.LikeService
	is     domain.ImageService
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the app services passed in.
func NewServer(isProd bool, csrfKey string, services *crud.Services, is domain.ImageService, imagesDir string) *Server {
	s := &Server{
		router: mux.NewRouter(),
		us:     services.User,
		fs:     services.Follow,
		ns:     services.Notification,
		ps:     services.Post,
		ls:     services.Like,
		is:     is,
	}

	api := s.router.PathPrefix("/api").Subrouter()
	s.registerAuthRoutes(api)
	s.registerUserRoutes(api)
	s.registerNotificationRoutes(api)
	s.registerPostRoutes(api)

	// Stored media and the prometheus scrape endpoint bypass csrf and auth.
	s.router.PathPrefix("/" + domain.ImagesBaseDir + "/").
		Handler(http.StripPrefix("/"+domain.ImagesBaseDir+"/", http.FileServer(http.Dir(imagesDir))))
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Middleware that runs on every api request. A new csrf token is issued
	// on safe requests and expected back in the X-CSRF-Token header.
	csrfMw := csrf.Protect([]byte(csrfKey), csrf.Secure(isProd), csrf.Path("/"))
	api.Use(csrfMw, setContentTypeJSON, monitoring.Instrument, s.checkUser)

	return s
}

// The setContentTypeJSON middleware sets the content type to "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// The checkUser middleware tries to identify the requesting user by their
// remember-token cookie and, on success, puts them into the request context.
// Requests without a valid cookie pass through unauthenticated; requireAuth
// decides per route whether that's acceptable.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("remember_token")
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByRemember(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		r = r.WithContext(auth.SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// requireAuth wraps a handler and rejects requests
// that the checkUser middleware left unauthenticated.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			errs.ReturnError(w, r, errs.Errorf(errs.EUNAUTHORIZED, "You must be logged in."))
			return
		}
		next(w, r)
	}
}

// getUserFromContext returns the authenticated user making the request.
func (s *Server) getUserFromContext(r *http.Request) *domain.User {
	return auth.GetUser(r.Context())
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) {
	addr := ":" + strconv.Itoa(port)
	logrus.WithField("addr", addr).Info("server listening")
	logrus.Fatal(http.ListenAndServe(addr, s.router))
}
