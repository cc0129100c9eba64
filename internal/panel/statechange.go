package panel

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/nerrad567/gray-logic-panels/internal/binding"
	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/dispatch"
	"github.com/nerrad567/gray-logic-panels/internal/protocol"
)

// brightnessChannels maps the panel's own dim capabilities to channels.
var brightnessChannels = map[string]protocol.Channel{
	device.CapDimLarge: protocol.ChannelLarge,
	device.CapDimSmall: protocol.ChannelMini,
	device.CapDimLED:   protocol.ChannelLEDs,
}

func channelCapability(ch protocol.Channel) string {
	for capability, c := range brightnessChannels {
		if c == ch {
			return capability
		}
	}
	return ""
}

// CheckStateChange mirrors a device change onto every button and display
// line bound to it.
func (c *Controller) CheckStateChange(ctx context.Context, deviceID, attribute string, value any) {
	if deviceID == c.opts.DeviceID {
		if ch, ok := brightnessChannels[attribute]; ok {
			c.mirrorBrightness(ch, value)
		}
	}

	for _, conn := range c.connectors {
		switch conn.Type {
		case ConnectorButtonPair:
			if conn.ConfigID == nil {
				continue
			}
			for _, side := range []protocol.Side{protocol.Left, protocol.Right} {
				rec := c.resolver.ResolveButtonSide(ctx, conn.ConfigID, side)
				dev, ok := rec.Target.(binding.Device)
				if !ok || dev.ID != deviceID || rec.Attribute != attribute {
					continue
				}
				c.mirrorButton(conn.Index, side, rec, value)
			}
		case ConnectorDisplay:
			db := c.resolver.ResolveDisplay(ctx, conn.ConfigID)
			for _, line := range db.LinesFor(deviceID, attribute) {
				c.mirrorDisplayLine(conn.Index, line, value, false)
			}
		}
	}
}

func (c *Controller) mirrorButton(connector int, side protocol.Side, rec binding.Record, value any) {
	index := protocol.ButtonIndex(connector, side)
	switch rec.Attribute {
	case device.CapDim:
		level, _ := toFloat(value)
		c.publishButton(index, rec, protocol.ToPercent(level), level > 0)
	case device.CapCoverState:
		s, _ := value.(string)
		c.publishButton(index, rec, s, s == device.CoverUp)
	default:
		on := truthy(value)
		c.setButton(index, on)
		c.publishButton(index, rec, on, on)
		if on {
			c.triggers.ButtonOn(c.opts.ID, side.IsLeft(), connector)
		} else {
			c.triggers.ButtonOff(c.opts.ID, side.IsLeft(), connector)
		}
	}
}

// mirrorDisplayLine publishes a display line unless it already shows value.
func (c *Controller) mirrorDisplayLine(connector int, line binding.DisplayLine, value any, force bool) {
	key := lineKey{connector: connector, line: line.Line}
	if last, ok := c.displayLast[key]; ok && !force && dispatch.Equal(last, value) {
		return
	}
	c.displayLast[key] = value
	c.publish(line.BrokerID, c.topics.DisplayLine(connector, line.Line), []byte(formatDisplayLine(line, value)))
}

// formatDisplayLine renders "Label value unit", omitting empty parts.
// Dim levels are shown as percentages.
func formatDisplayLine(line binding.DisplayLine, value any) string {
	if line.Attribute == device.CapDim {
		if f, ok := toFloat(value); ok {
			value = protocol.ToPercent(f)
		}
	}
	parts := lo.Compact([]string{line.Label, string(protocol.EncodeValue(value)) + line.Unit})
	return strings.Join(parts, " ")
}

// Bindings lists the (device, attribute) pairs this panel must observe,
// including the panel's own brightness capabilities when supported.
func (c *Controller) Bindings(ctx context.Context) []Binding {
	var out []Binding
	for _, conn := range c.connectors {
		switch conn.Type {
		case ConnectorButtonPair:
			if conn.ConfigID == nil {
				continue
			}
			for _, side := range []protocol.Side{protocol.Left, protocol.Right} {
				rec := c.resolver.ResolveButtonSide(ctx, conn.ConfigID, side)
				if dev, ok := rec.Target.(binding.Device); ok && rec.Attribute != "" {
					out = append(out, Binding{DeviceID: dev.ID, Attribute: rec.Attribute})
				}
			}
		case ConnectorDisplay:
			db := c.resolver.ResolveDisplay(ctx, conn.ConfigID)
			if db == nil {
				continue
			}
			for _, line := range db.Lines {
				out = append(out, Binding{DeviceID: line.Device, Attribute: line.Attribute})
			}
		}
	}
	if c.brightnessSupported && c.opts.DeviceID != "" {
		for _, ch := range protocol.Channels() {
			out = append(out, Binding{DeviceID: c.opts.DeviceID, Attribute: channelCapability(ch)})
		}
	}
	return lo.Uniq(out)
}

// Resync republishes every bound value and label to the panel, for example
// after the panel reboots or the broker reconnects.
func (c *Controller) Resync(ctx context.Context) {
	for _, conn := range c.connectors {
		switch conn.Type {
		case ConnectorButtonPair:
			if conn.ConfigID == nil {
				continue
			}
			for _, side := range []protocol.Side{protocol.Left, protocol.Right} {
				c.resyncButton(ctx, conn.Index, side)
			}
		case ConnectorDisplay:
			db := c.resolver.ResolveDisplay(ctx, conn.ConfigID)
			if db == nil {
				continue
			}
			for _, line := range db.Lines {
				capability, err := c.graph.GetCapability(ctx, line.Device, line.Attribute)
				if err != nil {
					c.logger.Debug("display line source unavailable",
						"panel_id", c.opts.ID, "device_id", line.Device, "attribute", line.Attribute, "error", err)
					continue
				}
				c.mirrorDisplayLine(conn.Index, line, capability.Value, true)
			}
		}
	}

	if c.brightnessSupported && c.opts.DeviceID != "" {
		for _, ch := range protocol.Channels() {
			capability, err := c.graph.GetCapability(ctx, c.opts.DeviceID, channelCapability(ch))
			if err != nil {
				continue
			}
			c.mirrorBrightness(ch, capability.Value)
		}
	}
	c.logger.Debug("panel resynced", "panel_id", c.opts.ID)
}

func (c *Controller) resyncButton(ctx context.Context, connector int, side protocol.Side) {
	conn := c.connectors[connector]
	rec := c.resolver.ResolveButtonSide(ctx, conn.ConfigID, side)
	index := protocol.ButtonIndex(connector, side)

	if rec.TopLabel != "" {
		c.publish(rec.BrokerID, c.topics.TopLabel(index), []byte(rec.TopLabel))
	}

	switch t := rec.Target.(type) {
	case binding.Device:
		capability, err := c.graph.GetCapability(ctx, t.ID, rec.Attribute)
		if err != nil {
			c.logger.Debug("bound attribute unavailable",
				"panel_id", c.opts.ID, "device_id", t.ID, "attribute", rec.Attribute, "error", err)
			return
		}
		switch rec.Attribute {
		case device.CapDim:
			level, _ := toFloat(capability.Value)
			c.publishButton(index, rec, protocol.ToPercent(level), level > 0)
		case device.CapCoverState:
			s, _ := capability.Value.(string)
			c.publishButton(index, rec, s, s == device.CoverUp)
		default:
			on := truthy(capability.Value)
			c.setButton(index, on)
			c.publishButton(index, rec, on, on)
		}
	case binding.Variable:
		v, err := c.graph.GetVariable(ctx, t.Name)
		if err == nil && v.Type == device.VariableBoolean {
			c.setButton(index, truthy(v.Value))
		}
		on := c.button(index)
		c.publishButton(index, rec, on, on)
	case binding.Unbound:
		on := c.button(index)
		c.publishButton(index, rec, on, on)
	}
}
