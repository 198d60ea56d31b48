package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"cueview/internal/errors"
	"cueview/internal/ops"
)

type rowsRequest struct {
	Annotator string `json:"annotator"`
	Model     string `json:"model"`
}

type fetchRequest struct {
	Annotator string `json:"annotator"`
	Model     string `json:"model"`
	Row       int    `json:"row"`
}

type saveRequest struct {
	Annotator string            `json:"annotator"`
	Model     string            `json:"model"`
	Row       int               `json:"row"`
	Decisions map[string]string `json:"decisions"`
	Notes     string            `json:"notes"`
}

// decode unmarshals tool-call arguments into a typed request struct.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var out T
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// successResult wraps an operation output as indented JSON text.
func successResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult converts an operation error into a tool error result. The
// structured code and message are surfaced; internal error details are not.
func errorResult(err error) (*mcp.CallToolResult, error) {
	var cErr *errors.CueviewError
	if stderrors.As(err, &cErr) && cErr.Code != errors.ErrInternal {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", cErr.Code, cErr.Message)), nil
	}
	return mcp.NewToolResultError("INTERNAL: internal error"), nil
}

func (s *Server) handleRows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[rowsRequest](req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out, err := ops.Overview(s.src, s.store, s.cfg, ops.OverviewInput{
		Username: args.Annotator,
		Model:    args.Model,
	})
	if err != nil {
		return errorResult(err)
	}
	return successResult(out)
}

func (s *Server) handleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[fetchRequest](req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out, err := ops.Review(s.src, s.store, s.cfg, ops.ReviewInput{
		Username: args.Annotator,
		Model:    args.Model,
		RowIndex: args.Row,
	})
	if err != nil {
		return errorResult(err)
	}
	return successResult(out)
}

func (s *Server) handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[saveRequest](req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	decisions := make(map[int]string, len(args.Decisions))
	for key, val := range args.Decisions {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("INVALID_REQUEST: decision key %q is not a tag index", key)), nil
		}
		decisions[idx] = val
	}

	out, err := ops.Save(s.src, s.store, s.cfg, ops.SaveInput{
		Username:  args.Annotator,
		Model:     args.Model,
		RowIndex:  args.Row,
		Decisions: decisions,
		Notes:     args.Notes,
	})
	if err != nil {
		return errorResult(err)
	}
	return successResult(out)
}

func (s *Server) handleRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[fetchRequest](req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out, err := ops.FetchRecord(s.src, s.store, ops.RecordInput{
		Username: args.Annotator,
		Model:    args.Model,
		RowIndex: args.Row,
	})
	if err != nil {
		return errorResult(err)
	}
	return successResult(out)
}
