package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer методы жизненного цикла *http.Server
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService HTTP-сервер как сервис suture
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve возвращает ошибку ListenAndServe или ctx.Err() после Shutdown
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return ctx.Err()
}

func (h *HTTPService) String() string {
	return "http-server"
}

// Engine движок workflow
type Engine interface {
	Close()
}

// EngineService держит движок workflow до остановки дерева.
// Close прерывает шаги; экземпляры остаются running и продолжаются
// после рестарта.
type EngineService struct {
	engine Engine
}

func NewEngineService(engine Engine) *EngineService {
	return &EngineService{engine: engine}
}

func (s *EngineService) Serve(ctx context.Context) error {
	<-ctx.Done()
	s.engine.Close()
	return ctx.Err()
}

func (s *EngineService) String() string {
	return "workflow-engine"
}
