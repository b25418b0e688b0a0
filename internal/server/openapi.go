package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/fingergame/internal/fingergame"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthStatus is one entry of the /healthz response.
type HealthStatus struct {
	Status string `json:"status" enum:"ok,error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Finger Game API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Session, catalog and leaderboard API for the finger party game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/tasks
	getTasks, _ := r.NewOperationContext(http.MethodGet, "/api/tasks")
	getTasks.SetSummary("List tasks")
	getTasks.SetDescription("Returns the full task catalog.")
	getTasks.AddRespStructure([]fingergame.Task{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getTasks)

	// GET /api/memes
	getMemes, _ := r.NewOperationContext(http.MethodGet, "/api/memes")
	getMemes.SetSummary("List media")
	getMemes.SetDescription("Returns the decorative media references.")
	getMemes.AddRespStructure([]string{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getMemes)

	// GET /api/bad-words
	getBadWords, _ := r.NewOperationContext(http.MethodGet, "/api/bad-words")
	getBadWords.SetSummary("List denylisted substrings")
	getBadWords.SetDescription("Returns the substrings nicknames must not contain.")
	getBadWords.AddRespStructure([]string{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getBadWords)

	// POST /api/games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGame.SetSummary("Create game")
	postGame.SetDescription("Creates an empty session and returns its id.")
	postGame.AddRespStructure(CreateGameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postGame)

	// GET /api/games/{id}/random-task
	getTask, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}/random-task")
	getTask.SetSummary("Random task")
	getTask.SetDescription("Draws one task, optionally filtered by difficulty.")
	getTask.AddReqStructure(RandomTaskRequest{})
	getTask.AddRespStructure(fingergame.Task{}, openapi.WithHTTPStatus(http.StatusOK))
	getTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTask)

	// POST /api/games/{id}/players
	postPlayer, _ := r.NewOperationContext(http.MethodPost, "/api/games/{id}/players")
	postPlayer.SetSummary("Add player")
	postPlayer.SetDescription("Appends a player to the roster. Names are unique per game.")
	postPlayer.AddReqStructure(PlayerActionRequest{})
	postPlayer.AddRespStructure(PlayersResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postPlayer)

	// POST /api/games/{id}/eliminate
	postEliminate, _ := r.NewOperationContext(http.MethodPost, "/api/games/{id}/eliminate")
	postEliminate.SetSummary("Eliminate player")
	postEliminate.SetDescription("Marks a player eliminated. Idempotent; crowns the last survivor.")
	postEliminate.AddReqStructure(PlayerActionRequest{})
	postEliminate.AddRespStructure(EliminateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postEliminate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postEliminate)

	// GET /api/games/{id}/status
	getStatus, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}/status")
	getStatus.SetSummary("Game status")
	getStatus.SetDescription("Returns the roster, eliminated players and winner.")
	getStatus.AddReqStructure(GameIDPath{})
	getStatus.AddRespStructure(fingergame.Status{}, openapi.WithHTTPStatus(http.StatusOK))
	getStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getStatus)

	// GET /api/games/{id}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}/events")
	getEvents.SetSummary("Event stream")
	getEvents.SetDescription("Upgrades to a WebSocket that sends a status snapshot, then every session event as JSON.")
	getEvents.AddReqStructure(GameIDPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEvents)

	// GET /api/games/{id}/qr
	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}/qr")
	getQR.SetSummary("Game QR code")
	getQR.SetDescription("PNG QR code linking to the game's status.")
	getQR.AddReqStructure(GameIDPath{})
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("image/png"))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getQR)

	// POST /api/game-result
	postResult, _ := r.NewOperationContext(http.MethodPost, "/api/game-result")
	postResult.SetSummary("Report result")
	postResult.SetDescription("Appends one result record to the leaderboard.")
	postResult.AddReqStructure(fingergame.Result{})
	postResult.AddRespStructure(GameResultResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postResult.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(postResult)

	// GET /api/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getBoard.SetSummary("Leaderboard")
	getBoard.SetDescription("Returns win counts per name. Unnamed records count as Anonymous.")
	getBoard.AddRespStructure(map[string]int{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(getBoard)

	return r.Spec
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
