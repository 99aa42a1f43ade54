package task

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/scaleoutsystems/fedn-go-client/internal/errs"
	"github.com/scaleoutsystems/fedn-go-client/internal/fednpb"
	"github.com/scaleoutsystems/fedn-go-client/internal/scratch"
	"github.com/scaleoutsystems/fedn-go-client/pkg/log"
	"github.com/scaleoutsystems/fedn-go-client/pkg/metrics"
)

const timestampLayout = "2006-01-02 15:04:05"

type updateData struct {
	RoundID string `json:"round_id"`
}

// dispatch runs the DISPATCHING -> {UPDATING,VALIDATING,PREDICTING} ->
// REPORTING -> IDLE state machine for one task directive. It never
// returns an error to the caller: every failure mode here is per-task
// per spec.md §7 and is logged, not propagated.
func (e *Engine) dispatch(ctx context.Context, req *fednpb.TaskRequest) {
	timer := metrics.NewTimer()
	taskLog := log.WithTask(e.log, req.TaskId, req.ModelId)

	switch req.Type {
	case fednpb.TaskUpdate:
		e.installContext(req.ModelId, roundIDOf(req.Data), req.SessionId)
		err := e.runUpdate(ctx, req, taskLog)
		e.clearContext()
		recordOutcome("update", timer, err)
	case fednpb.TaskValidate:
		e.installContext(req.ModelId, "", req.SessionId)
		err := e.runValidate(ctx, req, taskLog)
		e.clearContext()
		recordOutcome("validate", timer, err)
	case fednpb.TaskPredict:
		e.installContext(req.ModelId, "", req.SessionId)
		err := e.runPredict(ctx, req, taskLog)
		e.clearContext()
		recordOutcome("predict", timer, err)
	default:
		err := fmt.Errorf("%w: type %d", errs.ErrTaskUnknown, req.Type)
		taskLog.Warn().Err(err).Msg("unknown task type, skipping")
		metrics.TasksTotal.WithLabelValues("unknown", "skipped").Inc()
	}
}

func recordOutcome(taskType string, timer *metrics.Timer, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.TasksTotal.WithLabelValues(taskType, outcome).Inc()
	timer.ObserveDurationVec(metrics.TaskDuration, taskType)
}

func roundIDOf(data string) string {
	var ud updateData
	if err := json.Unmarshal([]byte(data), &ud); err != nil {
		return ""
	}
	return ud.RoundID
}

func (e *Engine) installContext(modelID, roundID, sessionID string) {
	e.ctx = loggingContext{active: true, modelID: modelID, roundID: roundID, sessionID: sessionID}
}

func (e *Engine) clearContext() {
	e.ctx.reset()
}

// runUpdate implements spec.md §4.5.2.
func (e *Engine) runUpdate(ctx context.Context, req *fednpb.TaskRequest, log zerolog.Logger) error {
	modelUpdateID := scratch.NewModelID()
	in := e.store.ModelPath(scratch.NewModelID())
	out := e.store.ModelPath(modelUpdateID)
	defer e.store.Unlink(in)
	defer e.store.Unlink(out)

	if err := e.download(ctx, req.ModelId, in); err != nil {
		log.Error().Err(err).Msg("update: download failed")
		return err
	}

	if err := e.callbacks.Train(in, out); err != nil {
		log.Error().Err(err).Msg("update: train callback failed")
		return fmt.Errorf("%w: %v", errs.ErrCallbackError, err)
	}

	if err := e.upload(ctx, modelUpdateID, out); err != nil {
		log.Error().Err(err).Msg("update: upload failed")
		return err
	}

	_, err := e.combiner.SendModelUpdate(ctx, &fednpb.ModelUpdate{
		Sender:        e.sender.toClient(),
		ModelId:       req.ModelId,
		ModelUpdateId: modelUpdateID,
		Timestamp:     time.Now().UTC().Format(timestampLayout),
		Meta:          "{}",
		Config:        req.Data,
	})
	if err != nil {
		log.Error().Err(err).Msg("update: SendModelUpdate failed")
		return fmt.Errorf("%w: %v", errs.ErrReportingFailed, err)
	}
	return nil
}

// runValidate implements spec.md §4.5.3.
func (e *Engine) runValidate(ctx context.Context, req *fednpb.TaskRequest, log zerolog.Logger) error {
	modelPath := e.store.ModelPath(scratch.NewModelID())
	metricsPath := e.store.PayloadPath(scratch.NewModelID())
	defer e.store.Unlink(modelPath)
	defer e.store.Unlink(metricsPath)

	if err := e.download(ctx, req.ModelId, modelPath); err != nil {
		log.Error().Err(err).Msg("validate: download failed")
		return err
	}

	if err := e.callbacks.Validate(modelPath, metricsPath); err != nil {
		log.Error().Err(err).Msg("validate: validate callback failed")
		return fmt.Errorf("%w: %v", errs.ErrCallbackError, err)
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		log.Error().Err(err).Msg("validate: reading metrics payload failed")
		return fmt.Errorf("%w: %v", errs.ErrCallbackError, err)
	}

	_, err = e.combiner.SendModelValidation(ctx, &fednpb.ModelValidation{
		Sender:    e.sender.toClient(),
		ModelId:   req.ModelId,
		Data:      string(data),
		SessionId: req.SessionId,
		Meta:      "{}",
		Timestamp: timestamppb.New(time.Now().UTC()),
	})
	if err != nil {
		log.Error().Err(err).Msg("validate: SendModelValidation failed")
		return fmt.Errorf("%w: %v", errs.ErrReportingFailed, err)
	}
	return nil
}

// runPredict implements spec.md §4.5.4.
func (e *Engine) runPredict(ctx context.Context, req *fednpb.TaskRequest, log zerolog.Logger) error {
	modelPath := e.store.ModelPath(scratch.NewModelID())
	predictionPath := e.store.PayloadPath(scratch.NewModelID())
	defer e.store.Unlink(modelPath)
	defer e.store.Unlink(predictionPath)

	if err := e.download(ctx, req.ModelId, modelPath); err != nil {
		log.Error().Err(err).Msg("predict: download failed")
		return err
	}

	if err := e.callbacks.Predict(modelPath, predictionPath); err != nil {
		log.Error().Err(err).Msg("predict: predict callback failed")
		return fmt.Errorf("%w: %v", errs.ErrCallbackError, err)
	}

	data, err := os.ReadFile(predictionPath)
	if err != nil {
		log.Error().Err(err).Msg("predict: reading prediction payload failed")
		return fmt.Errorf("%w: %v", errs.ErrCallbackError, err)
	}

	_, err = e.combiner.SendModelPrediction(ctx, &fednpb.ModelPrediction{
		Sender:       e.sender.toClient(),
		ModelId:      req.ModelId,
		Data:         string(data),
		PredictionId: req.SessionId,
		Meta:         "{}",
		Timestamp:    timestamppb.New(time.Now().UTC()),
	})
	if err != nil {
		log.Error().Err(err).Msg("predict: SendModelPrediction failed")
		return fmt.Errorf("%w: %v", errs.ErrReportingFailed, err)
	}
	return nil
}

// download reads a model via ModelService.Download into path on scratch,
// frame by frame, until a terminal OK or FAILED status arrives.
func (e *Engine) download(ctx context.Context, modelID, path string) error {
	stream, err := e.models.Download(ctx, &fednpb.ModelRequest{Id: modelID, Sender: e.sender.toClient()})
	if err != nil {
		metrics.TransferFailuresTotal.WithLabelValues("download").Inc()
		return fmt.Errorf("%w: open download: %v", errs.ErrTransferFailed, err)
	}

	src := &downloadSource{stream: stream}
	if err := e.store.WriteFrom(path, src); err != nil {
		metrics.TransferFailuresTotal.WithLabelValues("download").Inc()
		return fmt.Errorf("%w: %v", errs.ErrTransferFailed, err)
	}
	if src.failed {
		metrics.TransferFailuresTotal.WithLabelValues("download").Inc()
		return fmt.Errorf("%w: combiner reported FAILED status", errs.ErrTransferFailed)
	}
	metrics.TransferBytesTotal.WithLabelValues("download").Add(float64(src.total))
	return nil
}

// downloadSource adapts a Combiner/ModelService download stream to
// scratch.FrameSource.
type downloadSource struct {
	stream fednpb.ModelService_DownloadClient
	failed bool
	total  int
}

func (d *downloadSource) Next() ([]byte, error) {
	resp, err := d.stream.Recv()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	switch resp.Status {
	case fednpb.StatusFailed:
		d.failed = true
		return nil, io.EOF
	case fednpb.StatusOK:
		return resp.Data, io.EOF
	default:
		d.total += len(resp.Data)
		return resp.Data, nil
	}
}

// upload streams path to ModelService.Upload in chunks, tagging the
// sender on the first frame only and closing with a trailing OK frame
// whose data is empty — separate from the final data-carrying frame and
// always last on the wire (I3).
func (e *Engine) upload(ctx context.Context, modelUpdateID, path string) error {
	stream, err := e.models.Upload(ctx)
	if err != nil {
		return fmt.Errorf("%w: open upload: %v", errs.ErrTransferFailed, err)
	}

	chunkSize := e.chunkSizeNow()
	first := true
	var sent int
	var pending []byte
	err = e.store.ReadChunks(path, func(f scratch.Frame) error {
		pending = append(pending, f.Data...)
		for len(pending) >= chunkSize || (f.Last && len(pending) > 0) {
			n := min(chunkSize, len(pending))
			req := &fednpb.ModelRequest{Id: modelUpdateID, Status: fednpb.StatusInProgress, Data: pending[:n]}
			if first {
				req.Sender = e.sender.toClient()
				first = false
			}
			sent += n
			pending = pending[n:]
			if err := stream.Send(req); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.TransferFailuresTotal.WithLabelValues("upload").Inc()
		return fmt.Errorf("%w: %v", errs.ErrTransferFailed, err)
	}

	if err := stream.Send(&fednpb.ModelRequest{Id: modelUpdateID, Status: fednpb.StatusOK}); err != nil {
		metrics.TransferFailuresTotal.WithLabelValues("upload").Inc()
		return fmt.Errorf("%w: send trailing frame: %v", errs.ErrTransferFailed, err)
	}

	if _, err := stream.CloseAndRecv(); err != nil {
		metrics.TransferFailuresTotal.WithLabelValues("upload").Inc()
		return fmt.Errorf("%w: %v", errs.ErrTransferFailed, err)
	}

	metrics.TransferBytesTotal.WithLabelValues("upload").Add(float64(sent))
	return nil
}

// LogMetrics forwards to SendModelMetric tagged with the current logging
// context. If commit, the context's step counter is incremented. Called
// outside a task, it emits with an empty correlation triple rather than
// rejecting the call (spec.md I4, documented policy).
func (e *Engine) LogMetrics(ctx context.Context, values map[string]float64, step *int64, commit bool) error {
	s := e.ctx.step
	if step != nil {
		s = *step
	}

	kv := make([]*fednpb.MetricKV, 0, len(values))
	for k, v := range values {
		kv = append(kv, &fednpb.MetricKV{Key: k, Value: v})
	}

	_, err := e.connector.SendModelMetric(ctx, &fednpb.ModelMetric{
		Sender:    e.sender.toClient(),
		ModelId:   e.ctx.modelID,
		RoundId:   e.ctx.roundID,
		SessionId: e.ctx.sessionID,
		Step:      s,
		Metrics:   kv,
	})
	if err != nil {
		return fmt.Errorf("%w: SendModelMetric: %v", errs.ErrReportingFailed, err)
	}

	metrics.MetricsEmittedTotal.Inc()
	if commit {
		e.ctx.step++
	}
	return nil
}
