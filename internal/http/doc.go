// Package http provides the edge server of the portal: the handler chain that
// sits in front of the built front-end assets and the upstream booking API.
//
// The router exposes:
//   - GET /healthz: liveness probe answering {"success":true,"data":{"status":"ok"}}.
//   - /api/...: reverse proxy to the upstream REST API with the /api prefix
//     stripped. Upstream failures are answered with a 502 envelope.
//   - everything else: the static front end. Unknown paths without a file
//     extension fall back to index.html so client-side routes resolve.
//
// The edge route guard wraps the whole chain; it only looks at the presence
// of the session token, never at its validity.
package http
