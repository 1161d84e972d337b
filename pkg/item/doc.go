// Package item defines the value model flowing out of the pipeline and
// into the reconciler.
//
// Every pipeline output is normalized into an Item, a tagged variant that
// is either renderable (it carries a node-kind tag and properties) or
// opaque (an arbitrary pass-through value). Downstream code dispatches on
// the tag; nothing probes raw maps for magic properties outside this
// package.
//
// # Keys
//
// Key assigns each item a stable string identity used by keyed
// reconciliation: the declared identifier property when one exists,
// otherwise a deterministic structural hash of the whole item. Two
// snapshots of the same logical entity therefore map to the same key even
// when the entity moved position.
//
// # Equality
//
// Equal is the structural comparison used to decide whether an item
// changed between snapshots: same key set, every value recursively equal,
// primitives by identity, with cheap early exits. It is not cryptographic
// and not meant for adversarial input.
package item
