// Package beacon makes many isolated copies of a plugin share one status
// indicator.
//
// Every plugin copy constructs its own Beacon against the host's shared
// bus. There is no coordinator: the first copy that finds nobody answering
// on the relay endpoints registers them and becomes the owner. From then on
// every other copy forwards RegisterExtension and UnregisterExtension calls
// to the owner, which holds the only registry and the only indicator item.
//
// # Election
//
// Ownership is never recorded as a trusted flag. It is proven by holding
// the two relay endpoint registrations on the bus, and discovered on every
// call by trying to invoke them:
//
//	tryForward          -> Forwarded: done
//	                    -> Failed: apply locally, then
//	tryClaimOwnership   -> Owner: done
//	                    -> Failed (lost a race): tryForward once more
//	                         -> Forwarded: undo the local insert
//	                         -> Failed: keep the client locally (island)
//
// The local registry mutation happens before the claim attempt, so a copy
// that loses an ownership race never drops the client it was registering.
//
// # Usage
//
//	b, err := beacon.New(beacon.Options{
//	    Bus:       hostBus,
//	    Host:      statusBar,
//	    Presenter: picker,
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//	b.RegisterExtension(ctx, "acme.formatter")
//	defer b.Dispose()
//
// # Failures
//
// None of the public operations return errors or panic. Failures are logged
// and the most recent one is visible through DiagnosticInfo.
//
// # Thread Safety
//
// RegisterExtension, UnregisterExtension and Dispose are serialized per
// Beacon in call order. Relay handlers run on other instances' calls and
// only take the state lock, so an owner forwarding to itself cannot
// deadlock.
package beacon
