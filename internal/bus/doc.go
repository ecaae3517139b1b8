// Package bus provides the process-wide command bus that sibling plugin
// copies use to find each other.
//
// The bus is a flat namespace of named endpoints. Registration of a name is
// atomic and first-registrant-wins: a second Register for a name that is
// still held fails with ErrNameTaken. Everything the beacon protocol does to
// elect an owner is built from this one property and from the observable
// failure of Invoke.
//
// # Usage
//
//	b := bus.New()
//
//	h, err := b.Register("beacon.registerWithOwner", func(ctx context.Context, args ...any) (any, error) {
//	    return nil, nil
//	})
//	if errors.Is(err, bus.ErrNameTaken) {
//	    // someone else already owns the name
//	}
//	defer h.Release()
//
//	_, err = b.Invoke(ctx, "beacon.registerWithOwner", "client-a")
//
// # Failures
//
// Invoke distinguishes three failure shapes:
//
//   - ErrEndpointNotFound: nobody holds the name
//   - *RemoteError: the handler returned an error or panicked
//   - ErrInvokeTimeout: the context ended before the handler settled
//
// # Thread Safety
//
// All operations are safe for concurrent use. Handlers run without the bus
// lock held, so a handler may itself register, release or invoke endpoints.
package bus
