package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/model"
)

const (
	mcpServerName    = "NexusMind MCP Server"
	mcpServerVersion = "0.1.0"
	mcpProtocol      = "2024-11-05"
)

// JSON-RPC 2.0 error codes, plus the implementation-defined server range.
const (
	codeParseError           = -32700
	codeInvalidRequest       = -32600
	codeMethodNotFound       = -32601
	codeInvalidParams        = -32602
	codeServerError          = -32000
	codeProcessorUnavailable = -32002
	codeInternalError        = -32603
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type queryParams struct {
	Query             string                 `json:"query"`
	SessionID         string                 `json:"session_id"`
	Parameters        map[string]interface{} `json:"parameters"`
	Context           map[string]interface{} `json:"context"`
	IncludeGraphState bool                   `json:"include_graph_state"`
}

type queryResult struct {
	Answer                string                 `json:"answer"`
	ReasoningTraceSummary string                 `json:"reasoning_trace_summary"`
	ConfidenceVector      []float64              `json:"confidence_vector"`
	ExecutionTimeSeconds  float64                `json:"execution_time_seconds"`
	SessionID             string                 `json:"session_id"`
	GraphState            map[string]interface{} `json:"graph_state_full,omitempty"`
}

// HandleMCP is the single JSON-RPC 2.0 endpoint. Batch requests are not
// supported.
func (s *Server) HandleMCP(c *gin.Context) {
	var req rpcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, errorResponse(nil, codeParseError, "Parse error"))
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		c.JSON(http.StatusOK, errorResponse(req.ID, codeInvalidRequest, "Invalid Request"))
		return
	}

	switch req.Method {
	case "initialize":
		c.JSON(http.StatusOK, resultResponse(req.ID, gin.H{
			"server_name": mcpServerName,
			"version":     mcpServerVersion,
			"mcp_version": mcpProtocol,
		}))

	case "asr_got.query", "nexusmind.query":
		s.handleQuery(c, req)

	case "shutdown":
		s.log.Info("shutdown requested via MCP")
		c.JSON(http.StatusOK, resultResponse(req.ID, gin.H{"status": "shutdown_acknowledged"}))

	default:
		c.JSON(http.StatusOK, errorResponse(req.ID, codeMethodNotFound,
			"Method not found: "+req.Method))
	}
}

func (s *Server) handleQuery(c *gin.Context, req rpcRequest) {
	if s.processor == nil {
		c.JSON(http.StatusOK, errorResponse(req.ID, codeProcessorUnavailable,
			"Reasoning processor is not available"))
		return
	}

	var params queryParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			c.JSON(http.StatusOK, errorResponse(req.ID, codeInvalidParams, "Invalid params"))
			return
		}
	}
	if params.Query == "" {
		c.JSON(http.StatusOK, errorResponse(req.ID, codeInvalidParams,
			"Invalid params: 'query' is required"))
		return
	}

	start := time.Now()
	sessionData := s.processor.ProcessQuery(c.Request.Context(),
		params.Query, params.SessionID, params.Parameters, params.Context)
	elapsed := time.Since(start).Seconds()

	if err := s.sessions.Save(c.Request.Context(), sessionData); err != nil {
		s.log.Warn("session save failed",
			zap.String("session_id", sessionData.SessionID), zap.Error(err))
	}

	result := queryResult{
		Answer:                sessionData.FinalAnswer,
		ReasoningTraceSummary: traceSummary(sessionData),
		ConfidenceVector:      sessionData.FinalConfidenceVector.ToList(),
		ExecutionTimeSeconds:  elapsed,
		SessionID:             sessionData.SessionID,
	}

	if includeGraphState(params) {
		nodes, edges, err := s.processor.GraphCounts(c.Request.Context())
		if err != nil {
			s.log.Warn("graph state unavailable", zap.Error(err))
		} else {
			result.GraphState = map[string]interface{}{
				"node_count": nodes,
				"edge_count": edges,
			}
		}
	}

	c.JSON(http.StatusOK, resultResponse(req.ID, result))
}

// includeGraphState accepts the flag both at the top level of the query
// params and nested inside the parameters object, where existing clients
// put it.
func includeGraphState(p queryParams) bool {
	if p.IncludeGraphState {
		return true
	}
	v, _ := p.Parameters["include_graph_state"].(bool)
	return v
}

func traceSummary(data *model.SessionData) string {
	if len(data.StageTrace) == 0 {
		return "No stages executed."
	}
	lines := make([]string, len(data.StageTrace))
	for i, entry := range data.StageTrace {
		lines[i] = fmt.Sprintf("Stage %d (%s): %s", entry.StageNumber, entry.StageName, entry.Summary)
	}
	return strings.Join(lines, "\n")
}

func resultResponse(id, result interface{}) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id interface{}, code int, message string) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}
