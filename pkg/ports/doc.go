/*
Package ports defines the driven ports (interfaces) of the session subsystem.

These interfaces decouple the registry, cart and workflow logic from concrete
storage and catalog implementations.

# Key Interfaces

  - SessionStore: holds session records keyed by ID (in memory by default).
  - ProductCatalog: read-only product lookup consumed by the cart.
*/
package ports
