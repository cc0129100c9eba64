package mqtt

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/nerrad567/gray-logic-panels/internal/infrastructure/config"
)

// Pool holds one Client per configured broker, addressed by broker ID.
//
// Panels and bound devices each name the broker their traffic goes to; an
// empty ID selects the default broker.
type Pool struct {
	clients   map[string]*Client
	defaultID string
	mu        sync.RWMutex
}

// NewPool creates an empty pool whose empty broker ID resolves to defaultID.
func NewPool(defaultID string) *Pool {
	return &Pool{
		clients:   make(map[string]*Client),
		defaultID: defaultID,
	}
}

// ConnectPool connects to every broker in cfg.
// If any broker fails, the ones already connected are closed.
func ConnectPool(cfg config.MQTTConfig, logger Logger) (*Pool, error) {
	p := NewPool(cfg.DefaultBroker)
	for _, b := range cfg.Brokers {
		c, err := Connect(cfg, b)
		if err != nil {
			p.Close() //nolint:errcheck // best effort on error path
			return nil, err
		}
		if logger != nil {
			c.SetLogger(logger)
		}
		p.Add(c)
	}
	return p, nil
}

// Add registers c under its broker ID, replacing any previous client.
func (p *Pool) Add(c *Client) {
	p.mu.Lock()
	p.clients[c.BrokerID()] = c
	p.mu.Unlock()
}

// Client returns the client for brokerID.
func (p *Pool) Client(brokerID string) (*Client, error) {
	if brokerID == "" {
		brokerID = p.defaultID
	}
	p.mu.RLock()
	c, ok := p.clients[brokerID]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBroker, brokerID)
	}
	return c, nil
}

// Publish sends a non-retained message on brokerID without waiting for
// the broker. See Client.PublishAsync.
func (p *Pool) Publish(brokerID, topic string, payload []byte) error {
	c, err := p.Client(brokerID)
	if err != nil {
		return err
	}
	return c.PublishAsync(topic, payload, false)
}

// Subscribe registers handler for topic on brokerID.
func (p *Pool) Subscribe(brokerID, topic string, handler MessageHandler) error {
	c, err := p.Client(brokerID)
	if err != nil {
		return err
	}
	return c.Subscribe(topic, c.qos, handler)
}

// BrokerIDs returns the registered broker IDs in sorted order.
func (p *Pool) BrokerIDs() []string {
	p.mu.RLock()
	ids := lo.Keys(p.clients)
	p.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// HealthCheck checks every broker and joins the failures.
func (p *Pool) HealthCheck(ctx context.Context) error {
	p.mu.RLock()
	clients := lo.Values(p.clients)
	p.mu.RUnlock()

	var errs []error
	for _, c := range clients {
		if err := c.HealthCheck(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close disconnects every broker.
func (p *Pool) Close() error {
	p.mu.Lock()
	clients := lo.Values(p.clients)
	p.clients = make(map[string]*Client)
	p.mu.Unlock()

	var errs []error
	for _, c := range clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
