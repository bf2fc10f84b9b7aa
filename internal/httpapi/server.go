package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/service"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
)

// Pinger reports whether the backing store is reachable. *db.DB satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Logger        *zap.Logger
	Addr          string
	AccessService *service.AccessService
	MemberService *service.MemberService
	Health        Pinger

	// AdminTokenHash is a bcrypt hash of the admin bearer token. Empty
	// leaves the admin routes open.
	AdminTokenHash string
}

type Server struct {
	httpServer    *http.Server
	logger        *zap.Logger
	mux           *http.ServeMux
	accessService *service.AccessService
	memberService *service.MemberService
	health        Pinger
}

func NewServer(d Dependencies) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	s := &Server{
		logger:        logger.Named("http"),
		mux:           mux,
		accessService: d.AccessService,
		memberService: d.MemberService,
		health:        d.Health,
	}

	// Door controller routes. Never authenticated.
	mux.HandleFunc("GET /check_tag/{tag}", s.handleCheckTag)
	mux.HandleFunc("GET /entry/{tag}/{location}", s.handleEntry)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	admin := adminAuth(d.AdminTokenHash, s.logger)
	for _, prefix := range []string{"", "/secure", "/v1"} {
		handle := func(pattern string, h http.HandlerFunc) {
			method, path, _ := strings.Cut(pattern, " ")
			mux.Handle(method+" "+prefix+path, admin(h))
		}
		handle("PUT /new_tag/{tag}/{name}", s.handleNewTag)
		handle("POST /deactivate_tag/{tag}", s.handleDeactivate)
		handle("POST /reactivate_tag/{tag}", s.handleReactivate)
		handle("POST /edit_tag/{old}/{new}", s.handleEditTag)
		handle("POST /edit_name/{tag}/{name}", s.handleEditName)
		handle("GET /search_tags", s.handleSearchTags)
		handle("GET /search_entry_log", s.handleSearchEntryLog)
		handle("GET /dump_active_tags", s.handleDumpActiveTags)
		handle("PUT /new_location/{name}", s.handleNewLocation)
		handle("GET /locations", s.handleLocations)
	}

	handler := requestID(loggingMiddleware(s.logger, mux))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Access decisions ─────────────────────────────────────────────────────────

func (s *Server) handleCheckTag(w http.ResponseWriter, r *http.Request) {
	d, err := s.accessService.Check(r.Context(), r.PathValue("tag"))
	s.writeDecision(w, r, d, err)
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	d, err := s.accessService.Entry(r.Context(), r.PathValue("tag"), r.PathValue("location"))
	s.writeDecision(w, r, d, err)
}

// writeDecision answers with a bare status code.
func (s *Server) writeDecision(w http.ResponseWriter, r *http.Request, d service.Decision, err error) {
	switch {
	case err == nil:
		w.WriteHeader(d.Status())
	case errors.Is(err, service.ErrInvalidInput):
		w.WriteHeader(http.StatusBadRequest)
	default:
		s.internalError(w, r, err)
	}
}

// ── Member administration ────────────────────────────────────────────────────

func (s *Server) handleNewTag(w http.ResponseWriter, r *http.Request) {
	err := s.memberService.AddMember(r.Context(), r.PathValue("tag"), r.PathValue("name"))
	s.writeAdminResult(w, r, http.StatusCreated, err)
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	err := s.memberService.Deactivate(r.Context(), r.PathValue("tag"))
	s.writeAdminResult(w, r, http.StatusOK, err)
}

func (s *Server) handleReactivate(w http.ResponseWriter, r *http.Request) {
	err := s.memberService.Reactivate(r.Context(), r.PathValue("tag"))
	s.writeAdminResult(w, r, http.StatusOK, err)
}

func (s *Server) handleEditTag(w http.ResponseWriter, r *http.Request) {
	err := s.memberService.ChangeTag(r.Context(), r.PathValue("old"), r.PathValue("new"))
	s.writeAdminResult(w, r, http.StatusCreated, err)
}

func (s *Server) handleEditName(w http.ResponseWriter, r *http.Request) {
	err := s.memberService.ChangeName(r.Context(), r.PathValue("tag"), r.PathValue("name"))
	s.writeAdminResult(w, r, http.StatusCreated, err)
}

func (s *Server) handleNewLocation(w http.ResponseWriter, r *http.Request) {
	err := s.memberService.AddLocation(r.Context(), r.PathValue("name"))
	s.writeAdminResult(w, r, http.StatusCreated, err)
}

func (s *Server) handleSearchTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	members, err := s.memberService.SearchMembers(r.Context(), service.MemberQuery{
		Name:   q.Get("name"),
		Tag:    q.Get("tag"),
		Offset: intParam(q.Get("offset")),
		Limit:  intParam(q.Get("limit")),
	})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeLines(w, http.StatusOK, memberLines(members))
}

func (s *Server) handleSearchEntryLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := s.memberService.SearchEntries(r.Context(), service.EntryQuery{
		Tag:    q.Get("tag"),
		Offset: intParam(q.Get("offset")),
		Limit:  intParam(q.Get("limit")),
	})
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeLines(w, http.StatusOK, entryLines(entries))
}

func (s *Server) handleDumpActiveTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.memberService.DumpActive(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	if wantsProtobuf(r) {
		msg, err := activeTagsProto(tags)
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		writeProto(w, http.StatusOK, msg)
		return
	}

	out := make(map[string]bool, len(tags))
	for tag := range tags {
		out[tag] = true
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := s.memberService.Locations(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeLines(w, http.StatusOK, locationLines(locs))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeLines(w, http.StatusServiceUnavailable, []string{"unavailable"})
			return
		}
	}
	writeLines(w, http.StatusOK, []string{"ok"})
}

// writeAdminResult renders validation and conflict failures as 400 with one
// message per line.
func (s *Server) writeAdminResult(w http.ResponseWriter, r *http.Request, success int, err error) {
	var ve *service.ValidationError
	switch {
	case err == nil:
		w.WriteHeader(success)
	case errors.As(err, &ve):
		writeLines(w, http.StatusBadRequest, ve.Messages())
	case errors.Is(err, store.ErrConflict):
		writeLines(w, http.StatusBadRequest, []string{err.Error()})
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.Error(err))
	writeLines(w, http.StatusInternalServerError, []string{"internal server error"})
}

// intParam treats missing or malformed input as 0.
func intParam(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
