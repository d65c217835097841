package ws

import "time"

// ConnInfo describes one scan-feed subscriber, captured at handshake time
// and carried into the lifecycle events the hub publishes.
type ConnInfo struct {
	ConnID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
