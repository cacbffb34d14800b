package capabilities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"

	"firefighter-nlp/internal/common/config"
	"firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/common/metrics"
	"firefighter-nlp/internal/common/observability"
	"firefighter-nlp/internal/common/validation"
)

const TaskType = "nlp-capabilities"

var schema = validation.MustCompile("nlp-capabilities-input", inputSchema)

type Handler struct {
	config       *Config
	advisor      Advisor
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	complete     func(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Advisor       Advisor
	Logger        logger.Logger
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Advisor == nil {
		return nil, fmt.Errorf("advisor is required for %s", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	h := &Handler{
		config:       workerConfig,
		advisor:      opts.Advisor,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
		obs:          opts.Observability,
	}
	h.complete = h.completeJob
	return h, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.GetKey()))
	defer span.End()

	output, err := h.Execute(ctx, job)
	if err != nil {
		h.record(ctx, start, err)
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := h.complete(ctx, client, job, output); err != nil {
		h.record(ctx, start, err)
		return
	}

	h.record(ctx, start, nil)
	h.logger.Info("capabilities returned", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"available": output.Capabilities.Available,
	})
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err})
		return errors.NewJobCompletionFailedError(err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"jobKey": job.GetKey(), "error": err})
		return errors.NewJobCompletionFailedError(err)
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}
	return &Output{
		Capabilities: h.advisor.GetCapabilities(ctx, input.ActorID),
		Suggestions:  h.advisor.GetSuggestions(ctx, input.ActorID),
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result, err := schema.ValidateJSON(job.GetVariables())
	if err != nil {
		return nil, errors.NewInvalidJobInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}
	if !result.Valid {
		return nil, errors.NewInvalidJobInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := job.GetVariablesAs(&input); err != nil {
		return nil, errors.NewInvalidJobInputError(err.Error())
	}
	return &input, nil
}

func (h *Handler) record(ctx context.Context, start time.Time, err error) {
	status, code := "completed", ""
	if err != nil {
		status = "failed"
		code = string(errors.ErrCodeInternal)
		if stdErr, ok := errors.AsStandardError(err); ok {
			code = string(stdErr.Code)
		}
	}
	metrics.RecordJobOutcome(TaskType, code)
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), status)
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
