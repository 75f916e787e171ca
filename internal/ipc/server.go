package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/winpos/internal/logging"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

// Handler is the daemon surface the IPC server exposes.
type Handler interface {
	Status() StatusData
	Windows() []window.WindowInfo
	// EnableSubmission uses the configured interval/endpoint for zero arguments.
	EnableSubmission(intervalMs int, endpoint string) (submit.Status, error)
	DisableSubmission() submit.Status
	ToggleSubmission() (submit.Status, error)
	Reload() error
}

// readTimeout bounds how long a connection may take to send its request line.
const readTimeout = 5 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	readTimeout  time.Duration
	listener     net.Listener
	handler      Handler
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server bound to socketPath once started.
func NewServer(socketPath string, handler Handler, logger *slog.Logger) *Server {
	return &Server{
		socketPath:  socketPath,
		readTimeout: readTimeout,
		handler:     handler,
		logger:      logging.OrDiscard(logger),
	}
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed daemon.
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale IPC socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	// Stop waits on open connections, so an idle client must not hold one forever.
	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.writeResponse(conn, s.handleCommand(req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return okOrError(s.handler.Status())
	case CommandGetWindows:
		return okOrError(WindowsData{Windows: s.handler.Windows()})
	case CommandEnableSubmission:
		return s.handleEnable(req.Payload)
	case CommandDisableSubmission:
		return okOrError(SubmissionData{Submission: s.handler.DisableSubmission()})
	case CommandToggleSubmission:
		st, err := s.handler.ToggleSubmission()
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to toggle submission: %v", err))
		}
		return okOrError(SubmissionData{Submission: st})
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	if err := s.handler.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return okOrError(nil)
}

func (s *Server) handleEnable(payload json.RawMessage) *Response {
	var req EnableSubmissionPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid enable payload: %v", err))
		}
	}
	if req.IntervalMs < 0 {
		return NewErrorResponse("interval_ms must be > 0")
	}

	st, err := s.handler.EnableSubmission(req.IntervalMs, req.Endpoint)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to enable submission: %v", err))
	}
	return okOrError(SubmissionData{Submission: st})
}

func okOrError(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Warn("Failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("Failed to send response", "error", err)
	}
}

// Stop gracefully shuts down the IPC server and waits for open connections.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
