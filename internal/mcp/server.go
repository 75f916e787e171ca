// Package mcp exposes the daemon's window snapshot and submission control as
// Model Context Protocol tools over stdio.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winpos/internal/ipc"
	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

const (
	ServerName    = "winpos"
	ServerVersion = "0.1.0"
)

// DaemonClient is the subset of the IPC client the tools call.
type DaemonClient interface {
	GetStatus() (*ipc.StatusData, error)
	GetWindows() ([]window.WindowInfo, error)
	EnableSubmission(intervalMs int, endpoint string) (submit.Status, error)
	DisableSubmission() (submit.Status, error)
	ToggleSubmission() (submit.Status, error)
}

var _ DaemonClient = (*ipc.Client)(nil)

// Server is the MCP server; every tool call is forwarded to the daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	client    DaemonClient
}

// NewServer creates a server talking to the daemon through client.
func NewServer(client DaemonClient) *Server {
	s := &Server{client: client}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List visible application windows with their process, title, screen position (x, y) and client-area size (w, h). Sorted by process name.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "submission_status",
		Description: "Report whether snapshot submission is active, its session id, interval, endpoint and delivery counters.",
	}, s.handleSubmissionStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_submission",
		Description: "Turn periodic snapshot submission on, off, or toggle it. Turning it on starts a new session with a fresh session id.",
	}, s.handleSetSubmission)
}
