package mailbox

import (
	"fmt"

	"github.com/fty-ops/alert-registry/internal/clock"
	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
)

// AckResult is the outcome of a successful acknowledge request: the
// mailbox reply to send back, and the side-effect publication to send
// on the egress stream under Subject. Publish and Subject are nil/empty
// when the request failed validation — Reply alone carries the error.
type AckResult struct {
	Reply   [][]byte
	Publish *entity.Alert
	Subject string
}

// HandleAcknowledge answers an rfc-alerts-acknowledge request. request
// holds the frames as received: [rule, element, new_state].
func HandleAcknowledge(store *registry.Store, clk clock.Clock, request [][]byte) AckResult {
	if len(request) < 3 {
		return AckResult{Reply: errorReply(ReasonBadMessage)}
	}
	rule := string(request[0])
	element := string(request[1])
	newState := string(request[2])

	if !entity.IsAcknowledgeRequestState(newState) {
		return AckResult{Reply: errorReply(ReasonBadState)}
	}

	id := entity.Identity{Rule: rule, Element: element}

	store.Lock()
	stored, ok := store.FindLocked(id)
	if !ok {
		store.Unlock()
		return AckResult{Reply: errorReply(ReasonNotFound)}
	}
	if stored.State == entity.StateResolved {
		store.Unlock()
		return AckResult{Reply: errorReply(ReasonBadState)}
	}

	stored.State = entity.State(newState)
	publish := stored.Clone()
	store.Unlock()

	publish.Time = clk.WallSeconds()

	return AckResult{
		Reply:   [][]byte{[]byte("OK"), []byte(rule), []byte(element), []byte(newState)},
		Publish: publish,
		Subject: fmt.Sprintf("%s/%s@%s", publish.Rule, publish.Severity, publish.Element),
	}
}
