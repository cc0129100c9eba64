package panel

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-panels/internal/device"
	"github.com/nerrad567/gray-logic-panels/internal/protocol"
)

// SetPage sends a page command ("next", "prev" or a 1-based number).
// A cancelled ctx rejects the command before anything is applied.
func (c *Controller) SetPage(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.pagesSupported {
		return fmt.Errorf("%w: paging needs firmware %s, panel %s has %q",
			ErrCapabilityUnsupported, c.opts.PageMinVersion, c.opts.ID, c.opts.Firmware)
	}
	cmd, err := protocol.ParsePageCommand(command)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.page = cmd.Apply(c.page)
	c.mu.Unlock()

	c.publish("", c.topics.SetPage(), cmd.Payload())
	return nil
}

// onCurrentPage stores the page the panel reports. The report is
// authoritative and corrects a cursor moved past the last page by "next".
func (c *Controller) onCurrentPage(payload []byte) error {
	page, err := protocol.DecodePageIndex(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.page = page
	c.mu.Unlock()
	return nil
}

// SetBrightness writes a 0..1 brightness to one channel of the panel's
// own device. The change reaches the panel through CheckStateChange.
func (c *Controller) SetBrightness(ctx context.Context, ch protocol.Channel, fraction float64) error {
	if !c.brightnessSupported {
		return fmt.Errorf("%w: brightness needs firmware %s, panel %s has %q",
			ErrCapabilityUnsupported, c.opts.BrightnessMinVersion, c.opts.ID, c.opts.Firmware)
	}
	if !ch.Valid() {
		return fmt.Errorf("%w: unknown brightness channel %q", protocol.ErrInvalidPayload, ch)
	}
	if c.opts.DeviceID == "" {
		return fmt.Errorf("%w: panel %s has no device", device.ErrDeviceNotFound, c.opts.ID)
	}
	return c.graph.SetCapabilityValue(ctx, c.opts.DeviceID, channelCapability(ch), fraction)
}

// onBrightness stores a brightness reported by the panel on its device.
// The resulting change notification is not echoed back.
func (c *Controller) onBrightness(ctx context.Context, ch protocol.Channel, payload []byte) error {
	if !ch.Valid() {
		return fmt.Errorf("%w: unknown brightness channel %q", protocol.ErrInvalidPayload, ch)
	}
	raw, err := protocol.DecodeNumber(payload)
	if err != nil {
		return err
	}
	if c.opts.DeviceID == "" {
		return nil
	}
	fraction := protocol.FromBrightness(raw)
	c.brightnessEcho[ch] = fraction
	if err := c.graph.SetCapabilityValue(ctx, c.opts.DeviceID, channelCapability(ch), fraction); err != nil {
		delete(c.brightnessEcho, ch)
		return fmt.Errorf("storing %s brightness: %w", ch, err)
	}
	return nil
}

func (c *Controller) mirrorBrightness(ch protocol.Channel, value any) {
	if !c.brightnessSupported {
		return
	}
	fraction, ok := toFloat(value)
	if !ok {
		return
	}
	if echo, ok := c.brightnessEcho[ch]; ok {
		delete(c.brightnessEcho, ch)
		if echo == fraction {
			return
		}
	}
	c.publish("", c.topics.Brightness(ch), []byte(fmt.Sprint(protocol.ToBrightness(fraction))))
}

// onTemperature records the panel's built-in temperature sensor.
func (c *Controller) onTemperature(ctx context.Context, payload []byte) error {
	celsius, err := protocol.DecodeNumber(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.temperature = &celsius
	c.mu.Unlock()

	c.telemetry.WritePanelTemperature(c.opts.ID, celsius)
	if c.opts.DeviceID == "" {
		return nil
	}
	values := device.State{device.CapMeasureTemperature: celsius}
	if err := c.graph.ApplyState(ctx, c.opts.DeviceID, values, device.OriginLocal); err != nil {
		return fmt.Errorf("storing temperature: %w", err)
	}
	return nil
}

// Snapshot returns the panel's current local state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		ID:         c.opts.ID,
		Name:       c.opts.Name,
		DeviceID:   c.opts.DeviceID,
		Firmware:   c.opts.Firmware,
		Pages:      c.pagesSupported,
		Brightness: c.brightnessSupported,
		Connectors: make([]ConnectorSnapshot, 0, len(c.connectors)),
	}
	if c.pagesSupported {
		s.Page = c.page
	}
	if c.temperature != nil {
		t := *c.temperature
		s.Temperature = &t
	}
	for _, conn := range c.connectors {
		cs := ConnectorSnapshot{Index: conn.Index, Type: conn.Type, ConfigID: conn.ConfigID}
		if conn.Type.HasButtons() {
			cs.Left = c.buttonSnapshot(conn.Index, protocol.Left)
			cs.Right = c.buttonSnapshot(conn.Index, protocol.Right)
		}
		s.Connectors = append(s.Connectors, cs)
	}
	return s
}

// buttonSnapshot must be called with mu held.
func (c *Controller) buttonSnapshot(connector int, side protocol.Side) *ButtonSnapshot {
	index := protocol.ButtonIndex(connector, side)
	return &ButtonSnapshot{
		Index:     index,
		On:        c.buttons[index],
		LongPress: c.longPress[pressKey{connector: connector, side: side}],
	}
}
