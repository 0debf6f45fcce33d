// Package api hosts the REST facade over the relational and document stores.
// Notable routes:
//   - GET / and GET /healthz answer without a token.
//   - POST /token exchanges the API password for a bearer token.
//   - GET /metrics for Prometheus scraping.
//   - GET /races, /driver, /performance and /championship require a token.
package api
