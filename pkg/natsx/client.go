package natsx

import (
	"errors"

	"github.com/nats-io/nats.go"
)

// ClientName identifies mobileuse connections on the server.
const ClientName = "mobileuse"

// NewClient creates a new connection to the NATS server at url. Without options the
// connection is configured with the client name ClientName and compression enabled.
// Tick events are published over this connection by events.NATSHook.
//
// Parameters:
//   - url: The NATS server url, for example nats://127.0.0.1:4222.
//   - opts: Connection options replacing the defaults.
//
// Returns:
//   - *nats.Conn: A pointer to the established NATS connection.
//   - error: An error if url is empty or the connection could not be established.
func NewClient(url string, opts ...nats.Option) (*nats.Conn, error) {
	if url == "" {
		return nil, errors.New("natsx: url is required")
	}
	if len(opts) == 0 {
		opts = append(opts, nats.Name(ClientName), nats.Compression(true))
	}
	return nats.Connect(url, opts...)
}
