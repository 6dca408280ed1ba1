// Package classifier wraps the pre-trained crop disease model. The model is
// loaded once at startup from a TensorFlow Lite flatbuffer and treated as a
// pure function from input tensor to per-class scores.
package classifier

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	tflite "github.com/mattn/go-tflite"
	"go.uber.org/zap"

	"github.com/example/cropguard/internal/catalog"
	"github.com/example/cropguard/internal/preprocess"
)

// Classifier maps a preprocessed image tensor to a score vector aligned with
// the catalog's class order.
type Classifier interface {
	Predict(ctx context.Context, tensor []float32) ([]float32, error)
}

// TFLite runs inference through a tflite interpreter. The interpreter is not
// reentrant, so a mutex serializes concurrent requests.
type TFLite struct {
	model       *tflite.Model
	interpreter *tflite.Interpreter
	logger      *zap.Logger
	mu          sync.Mutex
}

// Load reads the model artifact from path and prepares an interpreter for
// inference. The output tensor length is validated against the catalog once
// here so a mismatched artifact fails at startup rather than per request.
func Load(path string, logger *zap.Logger) (*TFLite, error) {
	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, fmt.Errorf("classifier: cannot load model from %s", path)
	}

	options := tflite.NewInterpreterOptions()
	defer options.Delete()
	options.SetNumThread(runtime.NumCPU())

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, fmt.Errorf("classifier: cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("classifier: tensor allocation failed: %v", status)
	}

	c := &TFLite{
		model:       model,
		interpreter: interpreter,
		logger:      logger.Named("classifier"),
	}
	if err := c.validateShape(); err != nil {
		c.Close()
		return nil, err
	}

	c.logger.Info("model loaded",
		zap.String("path", path),
		zap.Int("classes", catalog.NumClasses))
	return c, nil
}

func (c *TFLite) validateShape() error {
	output := c.interpreter.GetOutputTensor(0)
	if output == nil {
		return fmt.Errorf("classifier: model has no output tensor")
	}
	if n := output.Dim(output.NumDims() - 1); n != catalog.NumClasses {
		return fmt.Errorf("classifier: model outputs %d classes, catalog has %d", n, catalog.NumClasses)
	}
	return nil
}

// Predict runs one forward pass. ctx is honored only before the interpreter
// is invoked; an in-flight invocation cannot be cancelled.
func (c *TFLite) Predict(ctx context.Context, tensor []float32) ([]float32, error) {
	if len(tensor) != preprocess.TensorLen {
		return nil, fmt.Errorf("classifier: expected tensor length %d, got %d", preprocess.TensorLen, len(tensor))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	input := c.interpreter.GetInputTensor(0)
	if input == nil {
		return nil, fmt.Errorf("classifier: cannot get input tensor")
	}
	copy(input.Float32s(), tensor)

	if status := c.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("classifier: invoke failed: %v", status)
	}

	output := c.interpreter.GetOutputTensor(0)
	scores := make([]float32, catalog.NumClasses)
	copy(scores, output.Float32s())
	return scores, nil
}

// Close releases the interpreter and model.
func (c *TFLite) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interpreter != nil {
		c.interpreter.Delete()
		c.interpreter = nil
	}
	if c.model != nil {
		c.model.Delete()
		c.model = nil
	}
}
