package config

import "time"

// Tunables holds the environment-configurable timing and buffering knobs
// shared by core/channel and core/ipc. Load it once at startup with Load
// or MustLoad and thread the result through the relevant *Option
// constructors.
type Tunables struct {
	// PendingTimeout bounds how long a Promise request may wait in a
	// ChannelServer's pending queue for its channel to be registered
	// before it fails with "Unknown channel". Mirrors
	// channel.DefaultPendingTimeout.
	PendingTimeout time.Duration `env:"IPC_PENDING_TIMEOUT" envDefault:"1s"`

	// ChannelBufferSize sets the per-subscriber buffer depth of the
	// broadcaster behind each ChannelClient event subscription (see
	// channel.WithEventBufferSize). Mirrors channel.DefaultEventBuffer.
	ChannelBufferSize int `env:"IPC_CHANNEL_BUFFER_SIZE" envDefault:"16"`

	// HandshakeReadTimeout bounds how long IPCServer.HandleConnection
	// waits for a newly accepted transport's first message (the
	// handshake) before giving up on the connection.
	HandshakeReadTimeout time.Duration `env:"IPC_HANDSHAKE_READ_TIMEOUT" envDefault:"5s"`
}

// DefaultTunables returns the same values Tunables' env defaults encode,
// for callers that want sensible settings without touching the
// environment at all.
func DefaultTunables() Tunables {
	return Tunables{
		PendingTimeout:       1 * time.Second,
		ChannelBufferSize:    16,
		HandshakeReadTimeout: 5 * time.Second,
	}
}
