// Package websocket implements the live dashboard session served on /ws.
// A Hub tracks open sessions. Each Client runs a read pump that turns filter
// messages into analysis, empty or error replies and a write pump that
// delivers them and keeps the connection alive with pings.
package websocket
