/*
Package session implements the session registry.

The Registry owns the session-id to record mapping. It creates records with
unpredictable identifiers, refreshes a sliding expiration on every touch,
shallow-merges partial payloads, and runs a periodic sweep that removes expired
records. Read-modify-write sequences on one record are serialized by a
reference-counted per-ID lock; operations on distinct records never contend.
*/
package session
