package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hearthapi/hearth/internal/model"
)

// timeLayout is the wire format for timestamps in response bodies,
// matching the X-RateLimit-RetryAfter header format.
const timeLayout = "2006-01-02 15:04:05"

// writeJSON serializes v as JSON and writes it to the response with the
// given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFailure writes the uniform single-reason failure envelope.
func writeFailure(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, model.Failed(reason))
}

// writeValidationFailure writes the multi-reason validation envelope.
func writeValidationFailure(w http.ResponseWriter, reasons []string) {
	vr := model.ValidationResponse{Result: model.ResultFailed}
	for _, r := range reasons {
		vr.Reasons = append(vr.Reasons, model.FailReason{Reason: r})
	}
	writeJSON(w, http.StatusBadRequest, vr)
}

// readJSON decodes the request body as JSON into v. The body is closed
// after decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt extracts an integer query parameter, returning defaultVal if
// the parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
