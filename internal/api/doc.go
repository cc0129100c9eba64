// Package api provides the HTTP REST API of the panel bridge.
//
// It exposes panel state and commands, device capability reads and writes,
// and the button and display configuration tables to commissioning tools.
//
// Everything that touches panel or dispatcher state is run on the event
// loop through Deps.Loop, so handlers never share state with MQTT
// callbacks directly.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
