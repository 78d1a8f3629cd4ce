package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campus/lms/internal/auth"
	"campus/lms/internal/config"
	"campus/lms/internal/model"
	"campus/lms/internal/repository"
	"campus/lms/internal/storage"
)

// Capabilities, one per route group. Role sets are fixed; there is no
// hierarchy. RequireActive additionally demands a live account for the
// student- and professor-facing groups.
var (
	capViewProfile = auth.Capability{
		Name:  "view_profile",
		Roles: []model.Role{model.RoleStudent, model.RoleProfessor, model.RoleRoot},
	}
	capAdminister = auth.Capability{
		Name:  "administer",
		Roles: []model.Role{model.RoleRoot},
	}
	capTeach = auth.Capability{
		Name:          "teach",
		Roles:         []model.Role{model.RoleProfessor},
		RequireActive: true,
	}
	capStudy = auth.Capability{
		Name:          "study",
		Roles:         []model.Role{model.RoleStudent},
		RequireActive: true,
	}
)

type Server struct {
	cfg       config.Config
	store     *repository.Store
	gate      *auth.Gate
	presigner storage.Presigner
	logger    *zap.Logger
}

func NewServer(cfg config.Config, store *repository.Store, presigner storage.Presigner, logger *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		gate:      auth.NewGate(cfg.JWTSecret, store),
		presigner: presigner,
		logger:    logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.With(s.require(capViewProfile)).Get("/auth/me", s.handleGetMe)

	r.Route("/root", func(r chi.Router) {
		r.Use(s.require(capAdminister))
		r.Get("/professors", s.handleListProfessors)
		r.Patch("/professors/{userID}/status", s.handleSetProfessorStatus)
		r.Get("/courses", s.handleListCourses)
		r.Post("/courses", s.handleCreateCourse)
		r.Put("/courses/{courseID}/professor/{professorID}", s.handleAssignProfessor)
		r.Delete("/courses/{courseID}", s.handleDeleteCourse)
	})

	r.Route("/professor", func(r chi.Router) {
		r.Use(s.require(capTeach))
		r.Get("/courses", s.handleListOwnCourses)
		r.Post("/courses/{courseID}/assignments", s.handleCreateAssignment)
		r.Patch("/assignments/{assignmentID}", s.handleUpdateAssignment)
		r.Delete("/assignments/{assignmentID}", s.handleDeleteAssignment)
		r.Get("/assignments/{assignmentID}/submissions", s.handleListSubmissions)
		r.Patch("/submissions/{submissionID}/grade", s.handleGradeSubmission)
		r.Get("/submissions/{submissionID}/attachment", s.handleProfessorAttachment)
		r.Post("/courses/{courseID}/announcements", s.handleCreateAnnouncement)
	})

	r.Route("/student", func(r chi.Router) {
		r.Use(s.require(capStudy))
		r.Get("/courses", s.handleListOpenCourses)
		r.Post("/courses/{courseID}/enroll", s.handleEnroll)
		r.Get("/courses/{courseID}/assignments", s.handleListCourseAssignments)
		r.Get("/courses/{courseID}/announcements", s.handleListCourseAnnouncements)
		r.Post("/assignments/{assignmentID}/submissions", s.handleCreateSubmission)
		r.Get("/submissions/{submissionID}/attachment", s.handleStudentAttachment)
	})

	return r
}

// require runs the access-control gate for a capability and attaches the
// resolved identity to the request context. Every denial is terminal.
func (s *Server) require(capability auth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, denial := s.gate.Authorize(r.Context(), r.Header.Get("Authorization"), capability)
			if denial != nil {
				if denial.Status == http.StatusInternalServerError {
					s.logger.Error("authorization failed",
						zap.String("capability", capability.Name),
						zap.String("code", denial.Code))
				}
				writeErrorMessage(w, denial.Status, denial.Code, denial.Message)
				return
			}
			ctx := context.WithValue(r.Context(), identityKey{}, &identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type identityKey struct{}

func identityFromContext(ctx context.Context) *auth.Identity {
	value := ctx.Value(identityKey{})
	identity, _ := value.(*auth.Identity)
	return identity
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.logger.Error(action, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "server_error")
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
