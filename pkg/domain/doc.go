/*
Package domain contains the core models of the session subsystem.

It defines the server-held Session record, the closed set of sub-state blocks a
session payload may carry, and the rules those blocks obey. This package is kept
pure and free of I/O, locking and persistence concerns; those live in the session,
cart and workflow packages and in the adapters.

# Key Entities

  - Session: an opaque identifier, an owner reference, timestamps and a sliding expiry.
  - Payload: a tagged union of known sub-state kinds (cart, workflow, preferences, counters).
  - Cart: ordered line items whose total is always derived, never stored.
  - Workflow: an ordered step sequence that only moves forward until it is completed.
  - Product: the read-only catalog entry a cart line snapshots its price from.
*/
package domain
