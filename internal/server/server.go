package server

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/shiftline/internal/geometry"
	"github.com/dukerupert/shiftline/internal/handler"
	"github.com/dukerupert/shiftline/internal/middleware"
	"github.com/dukerupert/shiftline/internal/store"
	ws "github.com/dukerupert/shiftline/internal/websocket"
)

type Server struct {
	db     *sql.DB
	hub    *ws.Hub
	dayH   *handler.DayHandler
	shiftH *handler.ShiftHandler
	dirH   *handler.DirectoryHandler
	icalH  *handler.ICalHandler
	logger *slog.Logger
}

func New(db *sql.DB, m geometry.Mapper, loc *time.Location, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	shiftStore := store.NewShiftStore(db)
	personStore := store.NewPersonStore(db)
	tagStore := store.NewTagStore(db)

	return &Server{
		db:     db,
		hub:    hub,
		dayH:   handler.NewDayHandler(shiftStore, personStore, tagStore, m, loc, logger.With("component", "day")),
		shiftH: handler.NewShiftHandler(shiftStore, personStore, tagStore, hub, m, loc, logger.With("component", "shift")),
		dirH:   handler.NewDirectoryHandler(personStore, tagStore, logger.With("component", "directory")),
		icalH:  handler.NewICalHandler(shiftStore, personStore, tagStore, loc, logger.With("component", "ical")),
		logger: logger,
	}
}

// Hub returns the websocket hub so background jobs can notify sessions.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Directory
	mux.HandleFunc("GET /api/people", s.dirH.ListPeople)
	mux.HandleFunc("POST /api/people", s.dirH.CreatePerson)
	mux.HandleFunc("GET /api/tags", s.dirH.ListTags)
	mux.HandleFunc("POST /api/tags", s.dirH.CreateTag)

	// Day views
	mux.HandleFunc("GET /api/day", s.dayH.People)
	mux.HandleFunc("GET /api/tags/day", s.dayH.Tags)
	mux.HandleFunc("GET /api/people/{id}/day", s.dayH.PersonDay)
	mux.HandleFunc("GET /api/tags/{id}/day", s.dayH.TagDay)

	// Shifts
	mux.HandleFunc("POST /api/shifts", s.shiftH.Create)
	mux.HandleFunc("GET /api/shifts/{id}", s.shiftH.Get)
	mux.HandleFunc("DELETE /api/shifts/{id}", s.shiftH.Delete)
	mux.HandleFunc("POST /api/shifts/{id}/commit", s.shiftH.Commit)
	mux.HandleFunc("POST /api/shifts/{id}/edits", s.shiftH.Edit)

	// Calendar feeds
	mux.HandleFunc("GET /api/people/{id}/shifts.ics", s.icalH.Person)
	mux.HandleFunc("GET /api/tags/{id}/shifts.ics", s.icalH.Tag)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
