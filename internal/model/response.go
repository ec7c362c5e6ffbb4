package model

// Result values used in the uniform response envelope.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// Response is the uniform envelope for single-reason outcomes:
// {"result":"success","data":...} or {"result":"failed","reason":"..."}.
type Response struct {
	Result string      `json:"result"`
	Reason string      `json:"reason,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// ValidationResponse is the envelope for multi-field validation failures.
type ValidationResponse struct {
	Result  string       `json:"result"`
	Reasons []FailReason `json:"reasons"`
}

// FailReason wraps a single user-facing validation message.
type FailReason struct {
	Reason string `json:"reason"`
}

// Failed builds a single-reason failure envelope.
func Failed(reason string) Response {
	return Response{Result: ResultFailed, Reason: reason}
}

// Success builds a success envelope carrying data.
func Success(data interface{}) Response {
	return Response{Result: ResultSuccess, Data: data}
}
