// Package config loads environment-driven configuration structs via
// caarlos0/env, with optional .env file support through godotenv.
//
// Load caches parsed values by struct type, so every component asking
// for the same config type observes the identical parsed result:
//
//	var tun config.Tunables
//	if err := config.Load(&tun); err != nil {
//		return err
//	}
//	hub := ipc.NewIPCServer(ipc.WithTunables(tun))
//
// Individual options remain available for components wired by hand:
//
//	srv := channel.NewChannelServer(proto, peer,
//		channel.WithPendingTimeout(tun.PendingTimeout))
//
// Tunables carries the IPC-wide timing and buffering knobs; packages
// with their own configuration (core/server.Config) define their own
// structs and load them the same way.
package config
