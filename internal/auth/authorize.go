package auth

// Capability names the access a protected operation requires on a resource.
type Capability string

const (
	CapabilityRead   Capability = "read"
	CapabilityWrite  Capability = "write"
	CapabilityDelete Capability = "delete"
)

// Resource describes the target of an authorization check. The caller must
// have resolved existence already; an absent resource is its NotFound, not
// a denial from this engine.
type Resource struct {
	OwnerID    string
	Capability Capability
}

// DenyReason explains a negative decision.
type DenyReason string

// ReasonNotOwner denies a non-elevated identity on a resource it does not own.
const ReasonNotOwner DenyReason = "not_owner"

// Decision is the outcome of one (identity, resource) evaluation. Computed
// fresh per call, never stored.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Engine renders allow/deny decisions from role elevation and ownership.
// It holds no state and performs no I/O.
type Engine struct{}

// NewEngine constructs the engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Authorize allows elevated identities unconditionally, then owners. The
// elevation branch comes first so elevated identities never depend on the
// ownership comparison.
func (e *Engine) Authorize(identity *Identity, resource Resource) Decision {
	if identity.Role.Elevated() {
		return Decision{Allowed: true}
	}
	if identity.SubjectID == resource.OwnerID {
		return Decision{Allowed: true}
	}
	return Decision{Allowed: false, Reason: ReasonNotOwner}
}
