package sessiond_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/sessiond"
	"github.com/aretw0/sessiond/pkg/adapters/memory"
	"github.com/aretw0/sessiond/pkg/domain"
)

// ExampleNew walks a session through a cart and a short checkout workflow.
func ExampleNew() {
	catalog := memory.NewCatalog(
		domain.Product{ID: "p1", Name: "Keyboard", Price: 999, Available: true},
		domain.Product{ID: "p2", Name: "Cable", Price: 49, Available: true},
	)
	svc, err := sessiond.New(sessiond.WithCatalog(catalog))
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	s, err := svc.Registry.Create(ctx, "u1", domain.Payload{})
	if err != nil {
		log.Fatal(err)
	}
	sess, err := svc.Resolver.Resolve(ctx, s.ID)
	if err != nil {
		log.Fatal(err)
	}

	cart, _ := svc.Carts.AddItem(ctx, sess.ID, "p1", 2)
	fmt.Println("total:", cart.Total())
	cart, _ = svc.Carts.AddItem(ctx, sess.ID, "p2", 1)
	fmt.Println("total:", cart.Total())
	cart, _ = svc.Carts.RemoveItem(ctx, sess.ID, "p1")
	fmt.Println("total:", cart.Total())

	svc.Workflows.Start(ctx, sess.ID, []string{"a", "b", "c"})
	for i := 0; i < 3; i++ {
		wf, _ := svc.Workflows.Advance(ctx, sess.ID)
		fmt.Println("step:", wf.CurrentStep)
	}

	svc.Registry.Delete(ctx, sess.ID)
	_, err = svc.Resolver.Resolve(ctx, sess.ID)
	fmt.Println(err != nil)

	// Output:
	// total: 1998
	// total: 2047
	// total: 49
	// step: b
	// step: c
	// step: completed
	// true
}
