// Package spawn instantiates declarative mesh networks.
//
// A [Request] lists nodes and the connections between them by node index.
// [Builder.Build] resolves the whole request before touching the world, so a
// malformed request is rejected as a unit with a [dynamo.SpawnError].
// Exactly one stick is created per unordered pair of nodes no matter how
// many times, or from which side, the pair is declared.
//
// Visual descriptors are interned by a [ResourceCache]: every distinct mesh
// or material gets one handle, shared across requests.
package spawn
