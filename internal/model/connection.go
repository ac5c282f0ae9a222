package model

import "time"

// ConnectionGrant records that an origin was allowed to see an address.
type ConnectionGrant struct {
	Origin      string    `json:"origin"`
	Address     string    `json:"publicKey"`
	Connected   bool      `json:"connected"`
	ConnectedAt time.Time `json:"connectedAt"`
}
