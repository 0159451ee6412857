// Package handler implements the inbound HTTP surface of the AI router:
// /route for dispatching tasks, /health for per-provider circuit state,
// and /providers for the static configuration listing.
package handler
