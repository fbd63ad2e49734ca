// Package server exposes a banker.Bank over HTTP.
//
// Routes:
//
//	POST /v1/requests   {"process": 1, "request": [1, 0, 2]}  evaluate a request
//	POST /v1/releases   {"process": 1, "release": [1, 0, 2]}  return held units
//	GET  /v1/state                                            current matrices
//	GET  /v1/safety[?order=4,3,2,1,0]                         safety verdict
//	GET  /health, /ready, /version                            probes
//	GET  /metrics                                             Prometheus (optional)
//
// A refused request is a normal answer and is returned with 200; only
// malformed requests get 4xx responses.
package server
