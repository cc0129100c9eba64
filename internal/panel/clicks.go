package panel

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-panels/internal/automation"
	"github.com/nerrad567/gray-logic-panels/internal/binding"
	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/protocol"
)

// press is one gesture resolved against the connector configuration.
type press struct {
	index    int
	key      pressKey
	conn     Connector
	rec      binding.Record
	explicit *bool
}

func (p press) left() bool { return p.key.side.IsLeft() }

// configured reports whether the press falls through to the bound target.
// Display connectors and unassigned connectors act as plain toggles.
func (p press) configured() bool {
	return p.conn.Type == ConnectorButtonPair && p.conn.ConfigID != nil
}

// HandleInboundEvent runs the click state machine for one gesture.
// kind must be a gesture kind. payload may carry an explicit "true" or
// "false"; anything else toggles.
func (c *Controller) HandleInboundEvent(ctx context.Context, kind protocol.Kind, buttonIndex int, payload []byte) error {
	if !kind.IsGesture() {
		return fmt.Errorf("%w: %s is not a gesture", protocol.ErrUnknownTopic, kind)
	}
	connector, side, err := protocol.DecodeButtonIndex(buttonIndex)
	if err != nil {
		return err
	}
	conn := c.connectors[connector]
	if !conn.Type.HasButtons() {
		return fmt.Errorf("%w: connector %d is %s", ErrNotButton, connector, conn.Type)
	}

	p := press{
		index: buttonIndex,
		key:   pressKey{connector: connector, side: side},
		conn:  conn,
		rec:   binding.ZeroRecord(),
	}
	if conn.Type == ConnectorButtonPair {
		p.rec = c.resolver.ResolveButtonSide(ctx, conn.ConfigID, side)
	}
	if v, ok := protocol.DecodeExplicit(payload); ok {
		p.explicit = &v
	}

	c.telemetry.WriteButtonEvent(c.opts.ID, connector, side.IsLeft(), kind.String())
	c.logger.Debug("panel gesture",
		"panel_id", c.opts.ID,
		"button", buttonIndex,
		"gesture", kind.String(),
		"target", binding.TargetRef(p.rec.Target),
	)

	switch kind {
	case protocol.KindClick:
		c.click(ctx, p)
	case protocol.KindLongPress:
		c.longPressed(ctx, p)
	case protocol.KindRelease:
		c.released(ctx, p)
	}
	return nil
}

func (c *Controller) click(ctx context.Context, p press) {
	if !p.configured() {
		c.toggleLocal(p)
		return
	}
	switch t := p.rec.Target.(type) {
	case binding.RawPassthrough:
		// External automations consume the raw gesture topics.
	case binding.Variable:
		c.clickVariable(ctx, p, t)
	case binding.Device:
		switch p.rec.Attribute {
		case device.CapDim:
			c.clickDim(ctx, p, t)
		case device.CapCoverState:
			c.clickCover(ctx, p, t)
		default:
			c.clickAttribute(ctx, p, t)
		}
	default:
		c.toggleLocal(p)
	}
}

// toggleLocal flips the button's own state. Only a bound configuration
// publishes, and a binding without an on-label is momentary.
func (c *Controller) toggleLocal(p press) {
	value := !c.button(p.index)
	if p.explicit != nil {
		value = *p.explicit
	}
	c.setButton(p.index, value)
	c.fireOnOff(p, value)

	if p.conn.ConfigID == nil {
		return
	}
	c.fireConfigButton(p, automation.PhaseClicked, value)
	c.publishButton(p.index, p.rec, value, value)
	if p.rec.OnLabel == "" {
		c.loop.Post(func() { c.autoRelease(p) })
	}
}

func (c *Controller) autoRelease(p press) {
	c.setButton(p.index, false)
	c.triggers.ButtonOff(c.opts.ID, p.left(), p.key.connector)
	c.publishButton(p.index, p.rec, false, false)
}

func (c *Controller) clickVariable(ctx context.Context, p press, t binding.Variable) {
	v, err := c.graph.GetVariable(ctx, t.Name)
	if err != nil {
		c.logger.Warn("bound variable unavailable", "panel_id", c.opts.ID, "variable", t.Name, "error", err)
		return
	}
	if v.Type != device.VariableBoolean {
		c.logger.Debug("bound variable is not boolean", "panel_id", c.opts.ID, "variable", t.Name, "type", v.Type)
		return
	}

	value := !truthy(v.Value)
	if p.explicit != nil {
		value = *p.explicit
	}
	c.setButton(p.index, value)
	c.fireConfigButton(p, automation.PhaseClicked, value)
	c.fireOnOff(p, value)
}

func (c *Controller) clickDim(ctx context.Context, p press, t binding.Device) {
	capability, err := c.graph.GetCapability(ctx, t.ID, device.CapDim)
	if err != nil {
		c.logger.Warn("reading dim level failed", "panel_id", c.opts.ID, "device_id", t.ID, "error", err)
		return
	}
	current, _ := toFloat(capability.Value)
	next, err := p.rec.ApplyDim(current)
	if err != nil {
		c.logger.Warn("invalid dim change", "panel_id", c.opts.ID, "device_id", t.ID, "error", err)
		return
	}

	c.fireConfigButton(p, automation.PhaseClicked, next)
	if err := c.graph.SetCapabilityValue(ctx, t.ID, device.CapDim, next); err != nil {
		c.logger.Warn("writing dim level failed", "panel_id", c.opts.ID, "device_id", t.ID, "error", err)
		return
	}
	c.publishButton(p.index, p.rec, protocol.ToPercent(next), next > 0)

	if p.explicit != nil {
		c.loop.Post(func() {
			c.publish(p.rec.BrokerID, c.topics.Value(p.index), protocol.EncodeBool(false))
		})
	}
}

func (c *Controller) clickCover(ctx context.Context, p press, t binding.Device) {
	value := !c.button(p.index)
	if p.explicit != nil {
		value = *p.explicit
	}
	command := device.CoverDown
	if value {
		command = device.CoverUp
	}

	c.fireConfigButton(p, automation.PhaseClicked, command)
	if err := c.graph.SetCapabilityValue(ctx, t.ID, device.CapCoverState, command); err != nil {
		c.logger.Warn("moving cover failed", "panel_id", c.opts.ID, "device_id", t.ID, "error", err)
		return
	}
	c.setButton(p.index, value)
	c.publishButton(p.index, p.rec, value, value)
}

func (c *Controller) clickAttribute(ctx context.Context, p press, t binding.Device) {
	var value bool
	if p.explicit != nil {
		value = *p.explicit
	} else {
		capability, err := c.graph.GetCapability(ctx, t.ID, p.rec.Attribute)
		if err != nil {
			c.logger.Warn("reading bound attribute failed",
				"panel_id", c.opts.ID, "device_id", t.ID, "attribute", p.rec.Attribute, "error", err)
			return
		}
		value = !truthy(capability.Value)
	}

	c.fireConfigButton(p, automation.PhaseClicked, value)
	if err := c.graph.SetCapabilityValue(ctx, t.ID, p.rec.Attribute, value); err != nil {
		c.logger.Warn("writing bound attribute failed",
			"panel_id", c.opts.ID, "device_id", t.ID, "attribute", p.rec.Attribute, "error", err)
		return
	}
	c.setButton(p.index, value)
	c.publishButton(p.index, p.rec, value, value)
}

func (c *Controller) longPressed(ctx context.Context, p press) {
	c.mu.Lock()
	c.longPress[p.key] = true
	c.mu.Unlock()

	c.triggers.LongPress(c.opts.ID, p.left(), p.key.connector)
	if p.conn.ConfigID != nil {
		c.fireConfigButton(p, automation.PhaseLong, c.button(p.index))
	}

	// Holding a dim button keeps stepping.
	if dev, ok := p.rec.Target.(binding.Device); ok && p.configured() && p.rec.Attribute == device.CapDim {
		c.clickDim(ctx, p, dev)
	}
}

func (c *Controller) released(ctx context.Context, p press) {
	c.triggers.Release(c.opts.ID, p.left(), p.key.connector)
	if p.conn.ConfigID != nil {
		c.fireConfigButton(p, automation.PhaseReleased, c.button(p.index))
	}

	c.mu.Lock()
	held := c.longPress[p.key]
	delete(c.longPress, p.key)
	c.mu.Unlock()

	if !p.configured() && p.rec.OnLabel == "" {
		c.setButton(p.index, false)
		c.triggers.ButtonOff(c.opts.ID, p.left(), p.key.connector)
		c.publish(p.rec.BrokerID, c.topics.Value(p.index), protocol.EncodeBool(false))
		return
	}

	// Releasing a held cover button stops it.
	if dev, ok := p.rec.Target.(binding.Device); ok && held && p.rec.Attribute == device.CapCoverState {
		if err := c.graph.SetCapabilityValue(ctx, dev.ID, device.CapCoverState, device.CoverIdle); err != nil {
			c.logger.Warn("stopping cover failed", "panel_id", c.opts.ID, "device_id", dev.ID, "error", err)
		}
	}
}

func (c *Controller) fireOnOff(p press, on bool) {
	if on {
		c.triggers.ButtonOn(c.opts.ID, p.left(), p.key.connector)
		return
	}
	c.triggers.ButtonOff(c.opts.ID, p.left(), p.key.connector)
}

func (c *Controller) fireConfigButton(p press, phase automation.Phase, value any) {
	if p.conn.ConfigID == nil {
		return
	}
	c.triggers.ConfigButton(c.opts.ID, p.left(), p.key.connector, string(p.conn.Type), *p.conn.ConfigID, phase, value)
}
