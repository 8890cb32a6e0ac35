// Package mailbox implements the two point-to-point request/reply
// protocols served over the mailbox transport: rfc-alerts-list and
// rfc-alerts-acknowledge. The functions here are pure request-in,
// reply-out logic against the registry; the mailbox worker (internal
// to the worker package) owns reading requests off the bus and writing
// replies back to it.
package mailbox

const (
	// ReasonBadMessage is returned when a request is malformed: missing
	// frames, an unknown command.
	ReasonBadMessage = "BAD_MESSAGE"
	// ReasonBadState is returned when a request is well-formed but
	// semantically forbidden: an invalid or disallowed target state.
	ReasonBadState = "BAD_STATE"
	// ReasonNotFound is returned when no matching identity or filter
	// exists.
	ReasonNotFound = "NOT_FOUND"
)

func errorReply(reason string) [][]byte {
	return [][]byte{[]byte("ERROR"), []byte(reason)}
}
