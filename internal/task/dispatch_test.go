package task

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaleoutsystems/fedn-go-client/internal/config"
	"github.com/scaleoutsystems/fedn-go-client/internal/fednpb"
	"github.com/scaleoutsystems/fedn-go-client/internal/scratch"
)

func newDispatchEngine(t *testing.T, connector *fakeConnector, combiner *fakeCombiner, models *fakeModelService, cb Callbacks) (*Engine, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	store := scratch.New(fs, "/work")
	ctl := config.ControlPlane{ClientID: "client-1", Name: "worker-a"}
	e := newEngine(store, ctl, withClients(connector, combiner, models), WithCallbacks(cb))
	return e, fs
}

// newDispatchEngineOS backs the scratch store with the real filesystem:
// the default train/validate/predict callbacks use plain os calls per
// spec.md §6's callback contract, so exercising them requires real paths.
func newDispatchEngineOS(t *testing.T, connector *fakeConnector, combiner *fakeCombiner, models *fakeModelService, cb Callbacks) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	store := scratch.New(afero.NewOsFs(), dir)
	ctl := config.ControlPlane{ClientID: "client-1", Name: "worker-a"}
	e := newEngine(store, ctl, withClients(connector, combiner, models), WithCallbacks(cb))
	return e, dir
}

func downloadFrames(data []byte) []*fednpb.ModelResponse {
	return []*fednpb.ModelResponse{
		{Status: fednpb.StatusInProgress, Data: data},
		{Status: fednpb.StatusOK},
	}
}

func TestRunUpdateHappyPathUnlinksScratchAndReportsUpdate(t *testing.T) {
	combiner := &fakeCombiner{}
	models := &fakeModelService{downloadFrames: downloadFrames([]byte("model-bytes")), uploadResp: &fednpb.ModelResponse{Message: "ok"}}
	e, dir := newDispatchEngineOS(t, &fakeConnector{}, combiner, models, Callbacks{})

	req := &fednpb.TaskRequest{TaskId: "t1", Type: fednpb.TaskUpdate, ModelId: "m1", SessionId: "s1", Data: `{"round_id":"r1"}`}
	e.dispatch(context.Background(), req)

	require.Len(t, combiner.updates, 1)
	assert.Equal(t, "m1", combiner.updates[0].ModelId)
	assert.Equal(t, req.Data, combiner.updates[0].Config)

	entries, err := afero.ReadDir(afero.NewOsFs(), dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files must be unlinked unconditionally")

	require.NotEmpty(t, models.lastUpload.sent)
	last := models.lastUpload.sent[len(models.lastUpload.sent)-1]
	assert.Equal(t, fednpb.StatusOK, last.Status)
	assert.Empty(t, last.Data)
}

func TestRunUpdateDownloadFailureSkipsReportAndUnlinks(t *testing.T) {
	combiner := &fakeCombiner{}
	models := &fakeModelService{downloadFrames: []*fednpb.ModelResponse{{Status: fednpb.StatusFailed}}}
	e, fs := newDispatchEngine(t, &fakeConnector{}, combiner, models, Callbacks{})

	req := &fednpb.TaskRequest{TaskId: "t1", Type: fednpb.TaskUpdate, ModelId: "m1", Data: "{}"}
	e.dispatch(context.Background(), req)

	assert.Empty(t, combiner.updates)
	entries, err := afero.ReadDir(fs, "/work")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunValidateHappyPath(t *testing.T) {
	combiner := &fakeCombiner{}
	models := &fakeModelService{downloadFrames: downloadFrames([]byte("m")), uploadResp: &fednpb.ModelResponse{}}
	e, _ := newDispatchEngineOS(t, &fakeConnector{}, combiner, models, Callbacks{})

	req := &fednpb.TaskRequest{TaskId: "t2", Type: fednpb.TaskValidate, ModelId: "m2", SessionId: "s2"}
	e.dispatch(context.Background(), req)

	require.Len(t, combiner.validations, 1)
	assert.Equal(t, "s2", combiner.validations[0].SessionId)
}

func TestRunPredictHappyPath(t *testing.T) {
	combiner := &fakeCombiner{}
	models := &fakeModelService{downloadFrames: downloadFrames([]byte("m")), uploadResp: &fednpb.ModelResponse{}}
	e, _ := newDispatchEngineOS(t, &fakeConnector{}, combiner, models, Callbacks{})

	req := &fednpb.TaskRequest{TaskId: "t3", Type: fednpb.TaskPredict, ModelId: "m3", SessionId: "s3"}
	e.dispatch(context.Background(), req)

	require.Len(t, combiner.predictions, 1)
	assert.Equal(t, "s3", combiner.predictions[0].PredictionId)
}

func TestDispatchUnknownTaskTypeIsSkippedWithoutConsumingModelBytes(t *testing.T) {
	combiner := &fakeCombiner{}
	models := &fakeModelService{}
	e, _ := newDispatchEngine(t, &fakeConnector{}, combiner, models, Callbacks{})

	req := &fednpb.TaskRequest{TaskId: "t4", Type: fednpb.TaskType(99), ModelId: "m4"}
	e.dispatch(context.Background(), req)

	assert.Empty(t, combiner.updates)
	assert.Empty(t, combiner.validations)
	assert.Empty(t, combiner.predictions)
}

func TestRunUpdateCallbackFailureAbortsBeforeUpload(t *testing.T) {
	combiner := &fakeCombiner{}
	models := &fakeModelService{downloadFrames: downloadFrames([]byte("m"))}
	cb := Callbacks{Train: func(in, out string) error { return assertErr }}
	e, fs := newDispatchEngine(t, &fakeConnector{}, combiner, models, cb)

	req := &fednpb.TaskRequest{TaskId: "t5", Type: fednpb.TaskUpdate, ModelId: "m5", Data: "{}"}
	e.dispatch(context.Background(), req)

	assert.Empty(t, combiner.updates)
	assert.Nil(t, models.lastUpload)
	entries, err := afero.ReadDir(fs, "/work")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

var assertErr = &rpcError{"callback failed"}
