// Package handlers implements the gateway's HTTP endpoints over the
// Copilot CLI service.
//
// # Endpoints
//
//	POST /api/chat     - single chat completion
//	POST /api/stream   - chat completion replayed as SSE chunks
//	GET  /api/health   - CLI availability probe (no auth)
//	GET  /api/models   - static model catalog
//
// # Handler Structure
//
// Each handler is a struct holding the CLI service plus its collaborators:
//
//	type ChatHandler struct {
//	    service *copilot.Service
//	    metrics *metrics.Collector
//	    logger  *logrus.Logger
//	}
//
// Handlers bind and validate the request, call the service, and encode
// either the OpenAI-compatible response or the flat error shape:
//
//	{"error": "Copilot CLI timed out", "details": "..."}
//
// A missing CLI binary maps to 503, a timeout to 504, any other CLI
// failure to 500.
//
// # Streaming
//
// The stream handler runs the CLI to completion, then replays the
// content word by word as chat.completion.chunk events, followed by an
// optional files chunk and a final "data: [DONE]" event. While the CLI
// runs it emits ": processing" comment heartbeats so intermediaries do
// not drop the connection. Response headers are only committed once the
// first byte goes out, so early failures still produce plain HTTP error
// statuses.
package handlers
