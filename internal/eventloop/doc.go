// Package eventloop provides the single logical event loop that owns all
// panel and dispatcher state.
//
// Handlers never lock panel state. Instead, whatever goroutine receives an
// event posts a task:
//
//	pool.Subscribe(broker, topic, func(topic string, payload []byte) error {
//	    loop.Post(func() { controller.HandleMessage(ctx, topic, payload) })
//	    return nil
//	})
//
// Work that must happen "on the next turn", such as releasing a momentary
// button after its press has been published, is simply posted from inside
// the running task.
package eventloop
