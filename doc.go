// Package ddom derives live host trees from declarative collection
// documents.
//
// A document declares data sources and collections; each collection is
// a pure pipeline (filter, sort, map, prepend, append) over one
// source's items. The engine binds the sources to cells in a signal
// graph, evaluates every collection as a derived value, and reconciles
// each result into its own host tree with keyed, surgical updates.
//
// Typical embedding:
//
//	engine, err := ddom.Open("app.ddom.hcl", ddom.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	go engine.Run(ctx)
//
//	unit, _ := engine.Unit("active")
//	unit.Sync()
//	fmt.Println(unit.HTML())
//
// Run owns the scheduler goroutine: source polls, cell writes, and
// reconciliation all happen there, so callbacks registered with
// Subscribe never race with each other. For serving documents over
// HTTP and streaming patches to browsers, see pkg/live.
package ddom
