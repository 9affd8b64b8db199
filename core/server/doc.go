// Package server wraps http.Server with graceful shutdown, option-based
// configuration, and an errgroup-friendly Run helper. It hosts the
// module's debug and WebSocket transport surfaces.
//
//	srv := server.New(":8080", server.WithShutdownTimeout(10*time.Second))
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, gateway.Handler()))
//	if err := g.Wait(); err != nil {
//		log.Fatal(err)
//	}
//
// Configuration can also come from the environment via Config and
// core/config.Load, with explicit options taking precedence.
package server
