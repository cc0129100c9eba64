// Package dispatch fans automation graph changes out to panels.
//
// Panels register the (device, attribute) pairs they display. Each change
// reported by the graph is posted to the event loop, compared with the
// last value forwarded for that pair, and, when different, handed to every
// StateObserver:
//
//	d := dispatch.New(ctx, registry, loop)
//	d.AddObserver(controller)
//	for _, b := range controller.Bindings() {
//	    _ = d.RegisterDeviceCapability(ctx, b.DeviceID, b.Attribute)
//	}
//	defer d.Close()
package dispatch
