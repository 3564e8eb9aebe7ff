package auth

import "context"

// OwnerResolver resolves the owner of the target resource. It is where the
// existence check lives: an absent resource must surface as the resolver's
// error (mapped to 404 upstream) before authorization is attempted.
type OwnerResolver func(ctx context.Context) (string, error)

// Operation is the protected work to run once the pipeline allows it.
type Operation func(ctx context.Context, identity *Identity) error

// Pipeline composes authentication and authorization around a protected
// operation. It short-circuits on the first failure and never remaps error
// kinds; surfacing them is the transport boundary's job.
type Pipeline struct {
	auth   *Authenticator
	engine *Engine
}

// NewPipeline constructs the composer.
func NewPipeline(auth *Authenticator, engine *Engine) *Pipeline {
	return &Pipeline{auth: auth, engine: engine}
}

// Run drives one protected operation: authenticate the header, resolve the
// resource's owner, authorize, then invoke op. op is never invoked on any
// rejection.
func (p *Pipeline) Run(ctx context.Context, rawHeaderValue string, capability Capability, resolveOwner OwnerResolver, op Operation) error {
	identity, err := p.auth.Authenticate(rawHeaderValue)
	if err != nil {
		return err
	}

	ownerID, err := resolveOwner(ctx)
	if err != nil {
		return err
	}

	decision := p.engine.Authorize(identity, Resource{OwnerID: ownerID, Capability: capability})
	if !decision.Allowed {
		return ErrNotOwner
	}

	return op(ctx, identity)
}
