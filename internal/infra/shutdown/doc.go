// Package shutdown coordinates graceful process termination.
//
//	h := shutdown.NewHandler(15 * time.Second)
//	h.OnShutdown("http", srv.Shutdown)
//	if err := h.Wait(ctx); err != nil { ... }
//
// Hooks run in reverse registration order under one shared deadline.
package shutdown
