package processquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"firefighter-nlp/internal/common/config"
	"firefighter-nlp/internal/common/errors"
	"firefighter-nlp/internal/common/logger"
	"firefighter-nlp/internal/common/metrics"
	"firefighter-nlp/internal/common/observability"
	"firefighter-nlp/internal/common/validation"
)

const (
	TaskType      = "nlp-process-query"
	AdminTaskType = "nlp-process-admin-query"
)

type Handler struct {
	config       *Config
	taskType     string
	admin        bool
	processor    QueryProcessor
	schema       *validation.Schema
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	complete     func(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Processor    QueryProcessor
	// Admin selects the pre-authorized administrator entry point.
	Admin         bool
	Logger        logger.Logger
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	taskType := TaskType
	if opts.Admin {
		taskType = AdminTaskType
	}

	workerConfig := createConfigFromAppConfig(opts.AppConfig, taskType, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", taskType, err)
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("query processor is required for %s", taskType)
	}

	schema, err := GetInputSchema(workerConfig.MaxTextLength)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	h := &Handler{
		config:       workerConfig,
		taskType:     taskType,
		admin:        opts.Admin,
		processor:    opts.Processor,
		schema:       schema,
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

	ctx, span := h.obs.StartSpan(ctx, h.taskType,
		attribute.Int64("job.key", job.GetKey()),
		attribute.Int64("process.instance.key", job.GetProcessInstanceKey()),
	)
	defer span.End()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.Execute(ctx, job)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.finish(ctx, start, errorCodeOf(err))
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	span.SetAttributes(attribute.Bool("nlp.success", output.Success))
	if err := h.complete(ctx, client, job, output); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.finish(ctx, start, errorCodeOf(err))
		return
	}
	h.finish(ctx, start, "")
}

// Execute parses the job variables and runs the pipeline. Only malformed
// input is an error; pipeline failures come back as Success=false output.
func (h *Handler) Execute(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.parseInput(job)
	if err != nil {
		return nil, err
	}

	resp := h.processor.ProcessQuery
	if h.admin {
		resp = h.processor.ProcessAdminQuery
	}
	r := resp(ctx, input.Text, input.ActorID)

	return &Output{
		Success: r.Success,
		Message: r.Message,
		Data:    r.Data,
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	result, err := h.schema.ValidateJSON(job.GetVariables())
	if err != nil {
		return nil, errors.NewInvalidJobInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}
	if !result.Valid {
		return nil, errors.NewInvalidJobInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidJobInputError(err.Error())
	}
	return &Input{
		Text:    variables["text"].(string),
		ActorID: variables["actorId"].(string),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return errors.NewJobCompletionFailedError(err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return errors.NewJobCompletionFailedError(err)
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":  job.GetKey(),
		"success": output.Success,
	})
	return nil
}

func (h *Handler) finish(ctx context.Context, start time.Time, errorCode string) {
	status := "completed"
	if errorCode != "" {
		status = "failed"
	}
	metrics.RecordJobOutcome(h.taskType, errorCode)
	h.obs.RecordJobProcessed(ctx, h.taskType, status)
	h.obs.RecordJobDuration(ctx, h.taskType, time.Since(start), status)
}

func (h *Handler) GetTaskType() string {
	return h.taskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func errorCodeOf(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeInternal)
}
