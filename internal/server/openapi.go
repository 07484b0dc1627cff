package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/edudesk/gamehost/internal/minigame"
	"github.com/edudesk/gamehost/internal/submission"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthStatus documents one entry of the /healthz response.
type HealthStatus struct {
	Status    string `json:"status" enum:"ok,error"`
	LatencyMS int64  `json:"latencyMs"`
}

// MessageEnvelope documents the frames accepted on a view channel.
type MessageEnvelope struct {
	Origin string         `json:"origin" example:"file://"`
	Data   map[string]any `json:"data"`
}

type viewPath struct {
	ViewID string `path:"viewID"`
}

type gamePath struct {
	GameID string `path:"gameID"`
}

type resultsQuery struct {
	GameID string `path:"gameID"`
	Limit  int    `query:"limit" minimum:"1" maximum:"500"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Game Host API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Hosts sandboxed mini-game bundles for the desktop shell.")

	// GET /healthz
	getHealthz := newOperation(r, http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	addOperation(r, getHealthz)

	// POST /api/games/{gameID}/views
	openView := newOperation(r, http.MethodPost, "/api/games/{gameID}/views")
	openView.SetSummary("Open game view")
	openView.SetDescription("Loads the game's bundle and starts a play session.")
	openView.AddReqStructure(gamePath{})
	openView.AddRespStructure(ViewResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	openView.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	openView.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	openView.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	addOperation(r, openView)

	// GET /api/games/{gameID}/results
	listResults := newOperation(r, http.MethodGet, "/api/games/{gameID}/results")
	listResults.SetSummary("List results")
	listResults.SetDescription("Returns results recorded locally for a game, newest first.")
	listResults.AddReqStructure(resultsQuery{})
	listResults.AddRespStructure([]submission.Record{}, openapi.WithHTTPStatus(http.StatusOK))
	listResults.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	addOperation(r, listResults)

	// GET /api/views/{viewID}
	getView := newOperation(r, http.MethodGet, "/api/views/{viewID}")
	getView.SetSummary("Get view")
	getView.SetDescription("Returns the view's state and play session.")
	getView.AddReqStructure(viewPath{})
	getView.AddRespStructure(ViewResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getView.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	addOperation(r, getView)

	// GET /api/views/{viewID}/channel
	channel := newOperation(r, http.MethodGet, "/api/views/{viewID}/channel")
	channel.SetSummary("Bundle message channel")
	channel.SetDescription("Upgrades to a WebSocket. Each text frame is a message envelope forwarded from the bundle.")
	channel.AddReqStructure(viewPath{})
	channel.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	addOperation(r, channel)

	// POST /api/views/{viewID}/messages
	postMessage := newOperation(r, http.MethodPost, "/api/views/{viewID}/messages")
	postMessage.SetSummary("Deliver message")
	postMessage.SetDescription("Delivers one message envelope. Invalid messages are dropped and still accepted.")
	postMessage.AddReqStructure(viewPath{})
	postMessage.AddReqStructure(MessageEnvelope{})
	postMessage.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusAccepted))
	postMessage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postMessage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	addOperation(r, postMessage)

	// POST /api/views/{viewID}/close
	closeView := newOperation(r, http.MethodPost, "/api/views/{viewID}/close")
	closeView.SetSummary("Close view")
	closeView.SetDescription("Closes the view. A game in progress requires confirmed=true.")
	closeView.AddReqStructure(viewPath{})
	closeView.AddReqStructure(CloseRequest{})
	closeView.AddRespStructure(CloseResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	closeView.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	closeView.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	addOperation(r, closeView)

	// GET /api/views/{viewID}/events
	getEvents := newOperation(r, http.MethodGet, "/api/views/{viewID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of session changes: " +
		string(minigame.EventScore) + ", " + string(minigame.EventEnded) + ", " +
		string(minigame.EventSubmitted) + ", " + string(minigame.EventSubmitFailed) + ", " +
		string(minigame.EventClosed) + ".")
	getEvents.AddReqStructure(viewPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	addOperation(r, getEvents)

	return r.Spec
}

// The document is static, so a route that fails to reflect is a programming
// error and panics at startup.
func newOperation(r *openapi3.Reflector, method, path string) openapi.OperationContext {
	oc, err := r.NewOperationContext(method, path)
	if err != nil {
		panic(fmt.Sprintf("openapi: %s %s: %v", method, path, err))
	}
	return oc
}

func addOperation(r *openapi3.Reflector, oc openapi.OperationContext) {
	if err := r.AddOperation(oc); err != nil {
		panic(fmt.Sprintf("openapi: %v", err))
	}
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
