package response

import (
	"encoding/json"
	"fmt"
	"time"
)

// LegacyResult is the flat result shape used by pre-envelope clients.
// Success mirrors status == SUCCESS, the payload of a failed response becomes
// the error string, and a timestamp is always present.
type LegacyResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Legacy projects the response to the legacy flat form.
func (r *Response) Legacy() LegacyResult {
	out := LegacyResult{
		Success:   r.status == StatusSuccess,
		Message:   r.message,
		Timestamp: r.created.UTC().Format(time.RFC3339),
	}
	if r.HasErrors() {
		out.Error = flattenError(r.data)
	} else {
		out.Data = r.data
	}
	return out
}

// flattenError renders a failure payload as a string for the legacy form.
func flattenError(detail any) string {
	switch v := detail.(type) {
	case nil:
		return ""
	case string:
		return v
	case error:
		return v.Error()
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
