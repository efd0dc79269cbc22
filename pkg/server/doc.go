// Package server runs the MediaMind HTTP server.
//
// The application handler is mounted behind a gorilla/mux router that also
// answers the operational endpoints:
//
//   - GET /healthz: JSON status, including a database ping when a
//     connection is configured
//   - GET /metrics: Prometheus metrics
//
// Every request passes through proxy header handling, request ids, combined
// access logging into zap, panic recovery, request metrics and response
// compression.
//
//	srv, err := server.NewServer(app, server.Options{Host: "0.0.0.0", Port: "8000", Logger: logger})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx)
package server
