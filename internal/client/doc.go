// Package client is a Go client for the bridge's POST /execute endpoint.
//
// Built on go-resty/resty. Requests the gateway rejected before reaching the
// backend (429 rate_limited, 503 queue_full) are retried with backoff; nothing
// else is, since the backend may already have run the command.
//
// Example Usage:
//
//	c := client.New("http://localhost:3000")
//	res, err := c.Execute(ctx, "ls /home")
//	words, err := c.Complete(ctx, "ca")
package client
