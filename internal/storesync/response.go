// ABOUTME: Response helpers for the store sync handler
// ABOUTME: CORS headers, JSON bodies, and the indented product list serialization

package storesync

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// WriteResponse is the JSON body of a successful POST.
type WriteResponse struct {
	Success bool   `json:"success"`
	GistID  string `json:"gist_id"`
}

// ErrorResponse is the JSON body of every 500.
type ErrorResponse struct {
	Error string `json:"error"`
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

// writeProducts writes stored product JSON verbatim.
func writeProducts(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"error":"Internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeJSONError writes {"error": message}.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// FormatProducts validates raw as a single JSON value and re-indents it with
// two spaces. Member order and literal spellings are preserved; the parser's
// error is returned unchanged for invalid input.
func FormatProducts(raw []byte) (string, error) {
	var products json.RawMessage
	if err := json.Unmarshal(raw, &products); err != nil {
		return "", err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, products); err != nil {
		return "", err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}
