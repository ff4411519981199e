package web

import (
	"crypto/sha256"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/csrf"

	"todolists/internal/model"
	"todolists/internal/store"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

const csrfFieldName = "authenticity_token"

type ServerConfig struct {
	Sessions *store.Manager
	// Secret signs session cookies and derives the CSRF key.
	Secret []byte

	CSRF           bool
	SecureCookies  bool
	RenderMarkdown bool

	Logger *log.Logger
}

type Server struct {
	cfg    ServerConfig
	tmpl   *template.Template
	logger *log.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("web: session manager is nil")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("web: session secret is empty")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"name":     nameRenderer(cfg.RenderMarkdown),
		"listPath": listPath,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{cfg: cfg, tmpl: tmpl, logger: logger}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /lists", s.withSession(s.handleLists))
	mux.HandleFunc("GET /lists/new", s.withSession(s.handleNewList))
	mux.HandleFunc("POST /lists", s.withSession(s.handleCreateList))
	mux.HandleFunc("GET /lists/{index}", s.withSession(s.handleList))
	mux.HandleFunc("GET /lists/{index}/edit", s.withSession(s.handleEditList))
	mux.HandleFunc("POST /lists/{index}", s.withSession(s.handleRenameList))
	mux.HandleFunc("POST /lists/{index}/destroy", s.withSession(s.handleDeleteList))
	mux.HandleFunc("POST /lists/{list_index}/todos", s.withSession(s.handleAddTodo))
	mux.HandleFunc("POST /lists/{list_index}/todos/{todo_index}/destroy", s.withSession(s.handleDeleteTodo))
	mux.HandleFunc("POST /lists/{list_index}/todos/{todo_index}", s.withSession(s.handleUpdateTodo))
	mux.HandleFunc("POST /lists/{list_index}/complete_all", s.withSession(s.handleCompleteAll))

	var h http.Handler = mux
	if s.cfg.CSRF {
		h = s.csrfProtect(h)
	}
	return s.logRequests(h)
}

// page is what a session handler decided to send: a redirect or a rendered template.
type page struct {
	redirect string
	status   int
	name     string
	data     any
	html     string
}

func redirectTo(path string) page {
	return page{redirect: path}
}

func render(status int, name string, data any) page {
	return page{status: status, name: name, data: data}
}

type sessionHandler func(r *http.Request, sess *model.Session) page

// withSession runs h inside the session's critical section. Rendering happens
// there too, since it consumes one-shot notices.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var out page
		rec, err := s.cfg.Sessions.Update(r.Context(), s.sessionIDForRequest(r), func(sess *model.Session) error {
			out = h(r, sess)
			if out.name == "" {
				return nil
			}
			html, err := s.renderTemplate(out.name, out.data)
			if err != nil {
				return err
			}
			out.html = html
			return nil
		})
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		if err := s.setSessionCookie(w, rec.ID); err != nil {
			s.internalError(w, r, err)
			return
		}
		if out.redirect != "" {
			http.Redirect(w, r, out.redirect, http.StatusSeeOther)
			return
		}
		status := out.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, out.html)
	}
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// internalError logs the real error and returns a generic message to the client.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal error", "method", r.Method, "path", r.URL.Path, "err", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Server) csrfProtect(next http.Handler) http.Handler {
	key := sha256.Sum256(append([]byte("csrf:"), s.cfg.Secret...))
	protect := csrf.Protect(key[:],
		csrf.Secure(s.cfg.SecureCookies),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.CookieName("todolists_csrf"),
		csrf.FieldName(csrfFieldName),
		csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
	)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}
		protect.ServeHTTP(w, r)
	})
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn("csrf check failed", "method", r.Method, "path", r.URL.Path, "reason", csrf.FailureReason(r))
	http.Error(w, "forbidden: invalid or missing form token, reload the page and try again", http.StatusForbidden)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/lists", http.StatusSeeOther)
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func listPath(index int) string {
	return "/lists/" + strconv.Itoa(index)
}

// pathIndex parses a positional index from the path. Anything that is not a
// non-negative integer becomes -1, which no list or todo can match.
func pathIndex(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.PathValue(key)))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
