// Package host provides the engine's built-in host-tree implementation:
// an in-memory element tree with a node factory, an operation journal,
// and an HTML snapshot renderer.
//
// The tree serves three roles. Tests mount collections against it and
// assert on structure or rendered HTML. The CLI renders documents to
// HTML through it. The live server reconciles into it and drains the
// journal after every pass to encode patches for connected clients.
//
// External hosts (a browser DOM binding, a terminal renderer) implement
// the reconcile.NodeFactory and reconcile.HostTree interfaces directly
// and do not go through this package.
package host
