// Package shutdown runs cleanup hooks when the process is asked to stop.
//
//	h := shutdown.NewHandler(30*time.Second, shutdown.WithLogger(log))
//	h.OnShutdown("kvstore", func(ctx context.Context) error { return store.Close() })
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx) // SIGINT, SIGTERM or ctx cancellation
//
// Hooks run in reverse registration order, so resources are released in
// the opposite order of their creation.
package shutdown
