package task

import (
	"io"
	"os"
)

// TrainFunc runs a training round on the model at in, writing the updated
// model to out. Both are plain filesystem paths; the call is synchronous.
type TrainFunc func(in, out string) error

// ValidateFunc runs validation on the model at modelPath, writing metrics
// JSON to metricsPath.
type ValidateFunc func(modelPath, metricsPath string) error

// PredictFunc runs prediction on the model at modelPath, writing the
// prediction JSON to predictionPath.
type PredictFunc func(modelPath, predictionPath string) error

// Callbacks holds the user-supplied train/validate/predict functions. Any
// subset may be nil; withDefaults (applied by WithCallbacks and when the
// Engine is built) fills the rest with defaults.
type Callbacks struct {
	Train    TrainFunc
	Validate ValidateFunc
	Predict  PredictFunc
}

// withDefaults returns a copy of c with nil fields replaced by the
// identity-ish defaults spec.md §6 describes.
func (c Callbacks) withDefaults() Callbacks {
	if c.Train == nil {
		c.Train = defaultTrain
	}
	if c.Validate == nil {
		c.Validate = defaultValidate
	}
	if c.Predict == nil {
		c.Predict = defaultPredict
	}
	return c
}

// defaultTrain echoes the input model to the output path unchanged.
func defaultTrain(in, out string) error {
	return copyFile(in, out)
}

// defaultValidate echoes the input model's bytes as the metrics payload.
func defaultValidate(modelPath, metricsPath string) error {
	return copyFile(modelPath, metricsPath)
}

// defaultPredict writes a fixed placeholder prediction.
func defaultPredict(_, predictionPath string) error {
	return os.WriteFile(predictionPath, []byte(`{"prediction":null}`), 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
