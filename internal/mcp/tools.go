package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/winpos/internal/submit"
	"github.com/1broseidon/winpos/internal/window"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	wins, err := s.client.GetWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	filter := strings.ToLower(strings.TrimSpace(args.Process))
	out := make([]window.WindowInfo, 0, len(wins))
	for _, w := range wins {
		if filter != "" && !strings.Contains(strings.ToLower(w.ProcessName), filter) {
			continue
		}
		out = append(out, w)
	}
	return nil, ListWindowsOutput{Count: len(out), Windows: out}, nil
}

func (s *Server) handleSubmissionStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ SubmissionStatusInput) (*mcpsdk.CallToolResult, SubmissionStatusOutput, error) {
	st, err := s.client.GetStatus()
	if err != nil {
		return nil, SubmissionStatusOutput{}, err
	}
	return nil, SubmissionStatusOutput{
		UptimeSeconds:  st.UptimeSeconds,
		HTTPListen:     st.HTTPListen,
		TrackedWindows: st.TrackedWindows,
		Submission:     submissionInfo(st.Submission),
	}, nil
}

func (s *Server) handleSetSubmission(_ context.Context, _ *mcpsdk.CallToolRequest, args SetSubmissionInput) (*mcpsdk.CallToolResult, SetSubmissionOutput, error) {
	var (
		st  submit.Status
		err error
	)
	switch strings.ToLower(strings.TrimSpace(args.Mode)) {
	case "on", "enable":
		if args.IntervalMs < 0 {
			return nil, SetSubmissionOutput{}, fmt.Errorf("interval_ms must be > 0")
		}
		st, err = s.client.EnableSubmission(args.IntervalMs, strings.TrimSpace(args.Endpoint))
	case "off", "disable":
		st, err = s.client.DisableSubmission()
	case "toggle":
		st, err = s.client.ToggleSubmission()
	default:
		return nil, SetSubmissionOutput{}, fmt.Errorf("mode must be one of on, off, toggle (got %q)", args.Mode)
	}
	if err != nil {
		return nil, SetSubmissionOutput{}, err
	}
	return nil, SetSubmissionOutput{Submission: submissionInfo(st)}, nil
}
