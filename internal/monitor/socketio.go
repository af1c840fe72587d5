package monitor

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/specialistvlad/vitlaunch/internal/config"
	"github.com/specialistvlad/vitlaunch/internal/ctxlog"
	"github.com/specialistvlad/vitlaunch/internal/launcher"
)

// SocketIO emits run events to a socket.io server.
type SocketIO struct {
	mu     sync.Mutex
	run    string
	emit   func(event string, payload map[string]any)
	close  func()
	closed bool
}

// New returns a reporter for cfg. A nil cfg, an empty URL or a failed
// connection all yield Nop; reporting never blocks a run from starting.
func New(ctx context.Context, cfg *config.Report) Reporter {
	if cfg == nil || cfg.URL == "" {
		return Nop{}
	}
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", cfg.URL)

	r, err := Dial(ctx, cfg)
	if err != nil {
		logger.Warn("Run reporting disabled.", "error", err)
		return Nop{}
	}
	return r
}

// Dial connects to the socket.io endpoint in cfg and waits for the
// connection to be acknowledged.
func Dial(ctx context.Context, cfg *config.Report) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", cfg.URL)

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("report URL %q must be absolute", cfg.URL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultReportTimeout
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Run reporter connected", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Initiating connection...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	return &SocketIO{
		emit:  func(event string, payload map[string]any) { io.Emit(event, payload) },
		close: func() { io.Disconnect() },
	}, nil
}

func (s *SocketIO) Started(info RunInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.run = info.Name
	s.emit(EventRunStarted, startedPayload(info))
}

func (s *SocketIO) ObserveLine(stream launcher.Stream, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.emit(EventRunOutput, outputPayload(s.run, stream, line))
}

func (s *SocketIO) Finished(result RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.emit(EventRunFinished, finishedPayload(s.run, result))
}

// Close disconnects the client. Events after Close are dropped.
func (s *SocketIO) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.close()
	return nil
}
