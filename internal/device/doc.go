// Package device holds the local view of the automation graph: devices,
// their capabilities (attributes) and logic variables.
//
// Panels read and write capabilities through the Registry, and subscribe
// to per-attribute change notifications:
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	unsubscribe := registry.OnCapabilityChange("light-hall", device.CapOnOff, func(c device.Change) {
//	    loop.Post(func() { /* react on the event loop */ })
//	})
//	defer unsubscribe()
//
//	err := registry.SetCapabilityValue(ctx, "light-hall", device.CapOnOff, true)
//
// Values written locally are forwarded through an optional CommandSink.
// StateSync implements that sink over MQTT and also feeds values reported
// on graylogic/core/device/+/state back into the registry.
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Listeners run synchronously on
// the writer's goroutine, so they must not block.
package device
