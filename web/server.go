package web

import (
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mogaika/ninja_converter/config"
)

// Server converts uploaded models and scenes over http.
type Server struct {
	cfg *config.Config
	log *zap.Logger

	texturesLock sync.RWMutex
	textures     []string
}

func NewServer(cfg *config.Config, textures []string, log *zap.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		log:      log.Named("web"),
		textures: textures,
	}
}

func (s *Server) Textures() []string {
	s.texturesLock.RLock()
	defer s.texturesLock.RUnlock()
	return s.textures
}

func (s *Server) SetTextures(textures []string) {
	s.texturesLock.Lock()
	defer s.texturesLock.Unlock()
	s.textures = textures
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/convert/export", s.HandlerExport).Methods("POST")
	r.HandleFunc("/convert/import", s.HandlerImport).Methods("POST")
	r.HandleFunc("/textures", s.HandlerTextures).Methods("GET")
	r.HandleFunc("/textures", s.HandlerUploadTextures).Methods("POST")
	r.HandleFunc("/formats", s.HandlerFormats).Methods("GET")
	return r
}

func (s *Server) Handler() http.Handler {
	stdlog := zap.NewStdLog(s.log)
	h := handlers.RecoveryHandler(handlers.RecoveryLogger(stdlog), handlers.PrintRecoveryStack(true))(s.Router())
	return handlers.LoggingHandler(stdlog.Writer(), h)
}

func StartServer(addr string, cfg *config.Config, textures []string, log *zap.Logger) error {
	s := NewServer(cfg, textures, log)
	s.log.Info("Starting server", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}
