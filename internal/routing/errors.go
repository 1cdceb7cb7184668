// Package routing builds a weighted graph from a transit network and answers
// shortest-path queries on it.
package routing

import (
	"errors"

	"metroroute.org/internal/network"
)

var (
	// ErrInvalidRequest is returned when a route request omits a station or names the same one twice.
	ErrInvalidRequest = errors.New("invalid route request")
	// ErrNotFound is returned when a requested station is not in the graph.
	ErrNotFound = errors.New("station not found")
	// ErrNoRoute is returned by callers that treat an unreachable destination as an error.
	ErrNoRoute = errors.New("no route between stations")
	// ErrDataIntegrity is shared with the network decoders.
	ErrDataIntegrity = network.ErrDataIntegrity
)
