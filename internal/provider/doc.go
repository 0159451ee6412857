// Package provider defines the immutable provider model: which backends
// exist, what task types each can serve, and how they rank by cost and
// priority. Live health state is tracked separately by the circuit
// breaker package so that this package stays lock-free.
package provider
