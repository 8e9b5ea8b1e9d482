// Package rpc exposes the game state and transaction submission via a
// JSON-RPC 2.0 HTTP endpoint.
package rpc

import (
	"encoding/json"
	"errors"

	"github.com/tolelom/cryptowarriors/core"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Standard JSON-RPC error codes plus one server code per game error kind.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeUnauthorized   = -32000

	CodeForbidden         = -32001
	CodeInsufficientFunds = -32002
	CodeStateConflict     = -32003
	CodeNotFound          = -32004
)

// codeFor maps an error to the JSON-RPC code of its kind.
func codeFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return CodeInvalidParams
	case errors.Is(err, core.ErrUnauthorized):
		return CodeForbidden
	case errors.Is(err, core.ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, core.ErrStateConflict):
		return CodeStateConflict
	case errors.Is(err, core.ErrNotFound):
		return CodeNotFound
	}
	return CodeInternalError
}

func errResponse(id any, code int, msg string) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: msg},
	}
}

func failResponse(id any, err error) Response {
	return errResponse(id, codeFor(err), err.Error())
}

func okResponse(id, result any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}
