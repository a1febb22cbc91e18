// Package proxy implements the request pipeline: route matching, upstream
// selection, forwarding, and transaction finalization.
//
// # Pipeline
//
// Every inbound request flows through Handler.ServeHTTP:
//
//  1. Admission: a transaction is begun in the store and the request body is
//     wrapped in a bounded capture reader.
//  2. Matching: the current route table snapshot is consulted; no match ends
//     the request with 404.
//  3. Selection: the balancer picks one eligible upstream; none ends the
//     request with 503.
//  4. Forwarding: the request is proxied to the chosen upstream with
//     hop-by-hop headers stripped and forwarding headers added. Exactly one
//     upstream attempt is made; there is no failover.
//  5. Finalization: the health tracker receives exactly one success or
//     failure verdict and the transaction is finalized exactly once, on
//     every exit path.
//
// # Hot Reload
//
// The handler holds the route table behind an atomic pointer. SetTable swaps
// it without pausing traffic; requests already admitted keep the snapshot
// they matched against.
package proxy
