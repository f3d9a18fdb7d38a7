package protocol

import "fmt"

// HTTP binding of the Extension port, shared by the host server and the HTTP requester.
const (
	HeaderCaller    = "X-Rmrk-Caller"
	HeaderStatus    = "X-Rmrk-Status"
	HeaderRequestID = "X-Request-ID"
	ContentType     = "application/octet-stream"
)

func ExtensionPath(id FuncID) string {
	return fmt.Sprintf("/extension/%d", uint32(id))
}
