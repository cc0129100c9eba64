// Package panel drives physical button panels.
//
// A Controller owns the local state of one panel: the on/off state of its
// sixteen buttons, which buttons are being held, the current page, the last
// line shown on each display and the last brightness the panel reported.
// It receives gestures from the bus, runs the click state machine against
// the bound configuration and writes the result to the automation graph.
// In the other direction it implements dispatch.StateObserver and mirrors
// graph changes back onto buttons, labels and display lines.
//
// A press on a button whose binding has no on-label is momentary: the
// press is published, and the release follows on the next loop turn.
//
//	c, err := panel.New(panel.OptionsFromConfig(pc, cfg.Panels), panel.Deps{
//	    Graph:    registry,
//	    Resolver: resolver,
//	    Bus:      pool,
//	    Triggers: triggers,
//	    Loop:     loop,
//	})
//	manager.Add(c)
//	manager.Wire(ctx, dispatcher)
//
// Firmware gates two features. Page commands need PageMinVersion and
// brightness topics need BrightnessMinVersion; older panels are never
// subscribed to those topics and SetPage returns ErrCapabilityUnsupported.
package panel
