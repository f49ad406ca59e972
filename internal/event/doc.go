// Package event provides synchronous, topic-addressed notifications for the
// tree model and the command layer.
//
// The document, its selection and every command publish onto an Emitter.
// Delivery is synchronous and happens in the publisher's goroutine, in
// priority order. The model itself decides when to publish: changes made
// inside an enqueued-changes scope are buffered by the document and
// published only when the scope closes, so observers never see a partially
// applied batch.
//
// # Topics
//
// See package topic for the names in use. Subscriptions accept wildcard
// patterns:
//
//	em := event.NewEmitter()
//	sub, _ := em.Subscribe(topic.Topic("selection.change.*"), event.HandlerFunc(
//	    func(ctx context.Context, ev any) error {
//	        return nil
//	    }))
//	defer sub.Cancel()
//
// # Typed payloads
//
// Events carry a typed payload:
//
//	ev := event.NewEvent(topic.DocumentChange, payload, "treemodel")
//	_ = em.Publish(ctx, ev)
//
// Handlers that only care about the payload use SubscribePayload.
//
// # Panics
//
// A panicking handler does not stop delivery to the remaining handlers.
// The panic is recovered, wrapped in a *PanicError and passed to the
// emitter's PanicHandler.
package event
