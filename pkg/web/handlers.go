package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/ideonhq/ideon/pkg/registry"
	"github.com/ideonhq/ideon/pkg/services"
)

type APIHandlers struct {
	graphService *services.Graph
	runService   *services.Run
	validator    *validator.Validate
	registry     *registry.Registry
}

func NewAPIHandlers(
	graphService *services.Graph,
	runService *services.Run,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		graphService: graphService,
		runService:   runService,
		validator:    validator,
		registry:     registry,
	}
}

// BuildGraph turns an idea into a stored graph. Blank ideas build the
// fallback plan, so this never rejects on content.
func (h *APIHandlers) BuildGraph(c fiber.Ctx) error {
	var req BuildGraphRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	graph, err := h.graphService.Build(c.Context(), req.Idea)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(graph)
}

func (h *APIHandlers) ListGraphs(c fiber.Ctx) error {
	graphs, err := h.graphService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"graphs": graphs,
		"count":  len(graphs),
	})
}

func (h *APIHandlers) GetGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	graph, err := h.graphService.Fetch(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(graph)
}

func (h *APIHandlers) DeleteGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	err := h.graphService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ExportGraph renders the graph as an exchange document.
func (h *APIHandlers) ExportGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	doc, err := h.graphService.Export(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(doc)
}

// ImportGraph stores a graph from a raw exchange document. The body is
// handed to the service unparsed so schema violations come back with
// field-level detail.
func (h *APIHandlers) ImportGraph(c fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return badRequest(c, "Request body is required")
	}

	graph, err := h.graphService.Import(c.Context(), body)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(graph)
}

func (h *APIHandlers) DeleteGraphNode(c fiber.Ctx) error {
	id := c.Params("id")
	nodeID := c.Params("nodeId")

	if id == "" || nodeID == "" {
		return badRequest(c, "Graph ID and node ID are required")
	}

	updated, err := h.graphService.DeleteNode(c.Context(), id, nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ConnectGraphNodes(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	var req ConnectNodesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.graphService.ConnectNodes(c.Context(), id, req.Source, req.Target)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ResetGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	updated, err := h.graphService.Reset(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

// StartRun publishes a run request and returns 202; the run itself happens
// on a worker.
func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	var req StartRunRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	requestedBy := req.RequestedBy
	if requestedBy == "" {
		requestedBy = "api"
	}

	event, err := h.runService.Start(c.Context(), id, requestedBy, req.TriggerData)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RunAcceptedResponse{
		RequestID: event.ID,
		GraphID:   event.GraphID,
		Status:    "run_requested",
		Timestamp: event.Timestamp,
	})
}

// CancelRun publishes a cancel request for the graph's active run.
func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	var req CancelRunRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	event, err := h.runService.Cancel(c.Context(), id, req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RunAcceptedResponse{
		RequestID: event.ID,
		GraphID:   event.GraphID,
		Status:    "cancel_requested",
		Timestamp: event.Timestamp,
	})
}

func (h *APIHandlers) GetRunStatus(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	status, err := h.runService.Status(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(status)
}

func (h *APIHandlers) GetTrace(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid limit parameter")
		}

		limit = parsed
	}

	entries, err := h.runService.Trace(c.Context(), id, limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"graph_id": id,
		"entries":  entries,
		"count":    len(entries),
	})
}

// ListComponents exposes the registered step executors and triggers with
// their config schemas.
func (h *APIHandlers) ListComponents(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"step_executors": h.registry.StepExecutorComponents(),
		"triggers":       h.registry.TriggerComponents(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.graphService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Ideon API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Ideon API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
