// Package status 只读 HTTP 状态服务
//
// 提供 /healthz 与 /status 两个端点，供外部探测桥接会话是否仍在运行。
// 不提供任何会话控制能力。
package status

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"serialbridge/internal/bridge"
	"serialbridge/internal/core/dispose"
	coreerrors "serialbridge/internal/core/errors"
	corelog "serialbridge/internal/core/log"
	"serialbridge/internal/core/safe"
)

// StatsProvider 提供会话快照
type StatsProvider interface {
	Stats() bridge.Stats
}

// Server 状态服务
type Server struct {
	dispose.Dispose

	mu       sync.RWMutex
	provider StatsProvider

	listen    string
	version   string
	startTime time.Time
	logger    corelog.Logger

	router   *mux.Router
	httpSrv  *http.Server
	listener net.Listener
}

// NewServer 创建状态服务，provider 可以稍后通过 SetProvider 设置
func NewServer(listen, version string, logger corelog.Logger) *Server {
	if logger == nil {
		logger = corelog.Default()
	}
	s := &Server{
		listen:    listen,
		version:   version,
		startTime: time.Now(),
		logger:    logger.WithField("component", "status"),
		router:    mux.NewRouter(),
	}
	s.SetName("status")
	s.setupRoutes()
	s.AddCleanHandler(s.shutdown)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// Handler 返回路由，便于测试直接挂到 httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetProvider 设置快照来源，会话在连接建立后才存在
func (s *Server) SetProvider(p StatsProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

func (s *Server) getProvider() StatsProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// Start 监听并在后台提供服务
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "status server listen on %s", s.listen)
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	safe.Go("status-server", func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("Status server stopped: %v", err)
		}
	})
	s.logger.Infof("Status server listening on http://%s", ln.Addr())
	return nil
}

// Addr 返回实际监听地址，未启动时为空
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) shutdown() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}
