// Package server wires the storage engine, batch executor, and HTTP API
// together.
package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-docbatch/pkg/api"
	"github.com/adfharrison1/go-docbatch/pkg/batch"
	"github.com/adfharrison1/go-docbatch/pkg/storage"
)

// Server holds the storage engine, executor, and router
type Server struct {
	router   *mux.Router
	dbEngine *storage.StorageEngine
	executor *batch.Executor
}

// NewServer creates a new server instance
func NewServer(storageOpts []storage.StorageOption, executorOpts ...batch.Option) *Server {
	engine := storage.NewStorageEngine(storageOpts...)
	s := &Server{
		router:   mux.NewRouter(),
		dbEngine: engine,
		executor: batch.New(engine, executorOpts...),
	}

	api.NewHandler(s.executor, engine).RegisterRoutes(s.router)
	s.router.Use(requestLoggerMiddleware)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("WARN: No route found for %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})

	return s
}

// requestLoggerMiddleware logs the method, URL path, and duration for
// each request
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		log.Printf("INFO: Request %s %s took %s", r.Method, r.URL.Path, elapsed)
	})
}

// InitDB loads collection metadata from a data file and starts
// background workers
func (s *Server) InitDB(filename string) {
	if err := s.dbEngine.LoadCollectionMetadata(filename); err != nil {
		log.Printf("ERROR: Could not load DB metadata from file %s: %v", filename, err)
	} else {
		log.Printf("INFO: Loaded DB metadata from file %s successfully", filename)
	}
	s.dbEngine.StartBackgroundWorkers()
}

// SaveDB saves the current database state to file
func (s *Server) SaveDB(filename string) {
	if err := s.dbEngine.SaveToFile(filename); err != nil {
		log.Printf("ERROR: Could not save DB to file %s: %v", filename, err)
	} else {
		log.Printf("INFO: Saved DB to file %s successfully", filename)
	}
}

// Shutdown stops background workers
func (s *Server) Shutdown() {
	s.dbEngine.StopBackgroundWorkers()
}

// Engine exposes the storage engine
func (s *Server) Engine() *storage.StorageEngine {
	return s.dbEngine
}

// Executor exposes the batch executor
func (s *Server) Executor() *batch.Executor {
	return s.executor
}

// Router exposes the internal mux.Router
func (s *Server) Router() http.Handler {
	return s.router
}
