package mailbox

import (
	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/wire"
)

// HandleList answers an rfc-alerts-list request. request holds the
// frames as received off the mailbox: ["LIST", state] or ["LIST_EX",
// correlation_id, state]. The returned frames are the full reply,
// including the leading status frame; callers push them back onto the
// mailbox unmodified.
func HandleList(store *registry.Store, request [][]byte) [][]byte {
	if len(request) == 0 {
		return errorReply(ReasonBadMessage)
	}

	switch string(request[0]) {
	case "LIST":
		if len(request) < 2 {
			return errorReply(ReasonNotFound)
		}
		return buildListReply(store, "LIST", nil, string(request[1]))
	case "LIST_EX":
		if len(request) < 2 {
			return errorReply(ReasonBadMessage)
		}
		if len(request) < 3 {
			return errorReply(ReasonNotFound)
		}
		corr := request[1]
		return buildListReply(store, "LIST_EX", corr, string(request[2]))
	default:
		return errorReply(ReasonBadMessage)
	}
}

func buildListReply(store *registry.Store, command string, correlationID []byte, state string) [][]byte {
	if !entity.IsListRequestState(state) {
		return errorReply(ReasonNotFound)
	}

	matches := matchingAlerts(store, state)

	reply := make([][]byte, 0, 2+len(matches))
	reply = append(reply, []byte(command))
	if correlationID != nil {
		reply = append(reply, correlationID)
	}
	reply = append(reply, []byte(state))
	for _, a := range matches {
		reply = append(reply, wire.Encode(a))
	}
	return reply
}

// matchingAlerts takes a deep-copied snapshot under the registry lock,
// then filters it without holding the lock, so the lock is released
// promptly.
func matchingAlerts(store *registry.Store, state string) []*entity.Alert {
	all := store.Snapshot()
	matches := make([]*entity.Alert, 0, len(all))
	for _, a := range all {
		if entity.StateIncluded(state, a.State) {
			matches = append(matches, a)
		}
	}
	return matches
}
