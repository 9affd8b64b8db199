// Package gateway mounts an ipc.IPCServer hub on an HTTP surface: peers
// join the hub by dialing a WebSocket endpoint, and two JSON endpoints
// report hub health and per-connection activity for debugging.
//
//	var tun config.Tunables
//	config.MustLoad(&tun)
//
//	hub := ipc.NewIPCServer(ipc.WithTunables(tun))
//	hub.RegisterChannel("svc", mySvc)
//
//	gw := gateway.New(hub, gateway.WithLogger(log))
//	if err := gw.Serve(ctx, ":8080"); err != nil {
//		log.Error("gateway stopped", logger.Error(err))
//	}
//
// A remote peer connects with ipc.NewIPCClient over a
// transport.WebSocketProtocol wrapping the dialed connection; the
// handshake and channel protocol then run exactly as they do over any
// other transport.
package gateway
