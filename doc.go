/*
Package sessiond keeps server-held conversational state for request-driven applications.

A session is an opaque, unpredictable identifier bound to an owner and a payload of
typed sub-state blocks. Sessions slide forward in time on every touch and are swept
away once idle longer than their TTL. Two containers ride on top of the payload: a
shopping cart whose total is always derived from its price-frozen line items, and a
forward-only workflow of named steps.

# Components

  - Registry (pkg/session): create, get, update, delete and the background expiry sweep.
  - Cart store (pkg/cart): line items priced from an external product catalog.
  - Workflow engine (pkg/workflow): start and advance a step sequence.
  - Resolver (pkg/resolver): turns an inbound token into a session or a rejection.

Service wires the four together over a single registry:

	svc, err := sessiond.New(sessiond.WithCatalog(catalog))
	if err != nil {
		log.Fatal(err)
	}
	svc.Start(ctx)
	defer svc.Stop()

	s, _ := svc.Registry.Create(ctx, "u1", domain.Payload{})
	sess, err := svc.Resolver.Resolve(ctx, s.ID)
	if err != nil {
		// domain.ErrRejected: no valid session was presented
	}
	cart, _ := svc.Carts.AddItem(ctx, sess.ID, "p1", 2)

Nothing survives a restart and nothing is shared across processes.
*/
package sessiond
