// Package mqtt provides MQTT connectivity for the panel bridge.
//
// This package manages:
//   - One paho connection per configured broker, with auto-reconnect
//   - A Pool addressing those connections by broker ID
//   - Fire-and-forget publishing for panel traffic
//   - Tracked subscriptions restored on reconnect
//   - Last Will and Testament on graylogic/system/panels/status
//
// Panels can sit on different brokers than the devices they control, so
// every publish names its broker:
//
//	pool, err := mqtt.ConnectPool(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.Subscribe("homey", "buttonplus/+/+/click", handler)
//	err = pool.Publish("homey", "buttonplus/panel-hall/3/value", []byte("true"))
//
// Pool.Publish never waits for the broker. Failures that surface later are
// logged through the client's Logger.
package mqtt
