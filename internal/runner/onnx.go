package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

var defaultInputNames = []string{"input_ids", "attention_mask"}
var defaultOutputNames = []string{"logits"}

// ONNXConfig configures an ONNX runner.
type ONNXConfig struct {
	ModelPath      string
	Device         string // DeviceCPU or DeviceCUDA, chosen once at load
	Sessions       int
	IntraOpThreads int
	InterOpThreads int
	LibraryPath    string   // onnxruntime shared library override
	InputNames     []string // defaults to input_ids, attention_mask
	OutputNames    []string // defaults to logits
}

// ONNX runs a compiled ONNX model through a pool of sessions. The device
// variant (CPU vs CUDA execution provider) is fixed at construction;
// callers never branch on it afterwards.
type ONNX struct {
	sessions   chan *ort.DynamicAdvancedSession
	opts       *ort.SessionOptions
	poolSize   int
	numOutputs int
	log        zerolog.Logger
}

// NewONNX initializes the onnxruntime environment and builds the session
// pool described by cfg.
func NewONNX(cfg ONNXConfig, log zerolog.Logger) (*ONNX, error) {
	if strings.TrimSpace(cfg.ModelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", cfg.ModelPath, err)
	}

	libPath := resolveSharedLibraryPath(cfg.LibraryPath, filepath.Dir(cfg.ModelPath))
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	if cfg.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("set intra op threads: %w", err)
		}
	}
	if cfg.InterOpThreads > 0 {
		if err := opts.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("set inter op threads: %w", err)
		}
	}

	device := strings.ToLower(strings.TrimSpace(cfg.Device))
	if device == "" {
		device = DeviceCPU
	}
	if device == DeviceCUDA {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("create cuda provider options: %w", err)
		}
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			cudaOpts.Destroy()
			opts.Destroy()
			return nil, fmt.Errorf("append cuda execution provider: %w", err)
		}
		cudaOpts.Destroy()
	}

	inputNames := cfg.InputNames
	if len(inputNames) == 0 {
		inputNames = defaultInputNames
	}
	outputNames := cfg.OutputNames
	if len(outputNames) == 0 {
		outputNames = defaultOutputNames
	}

	poolSize := cfg.Sessions
	if poolSize <= 0 {
		poolSize = 1
	}
	sessions := make(chan *ort.DynamicAdvancedSession, poolSize)
	for i := 0; i < poolSize; i++ {
		session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, outputNames, opts)
		if err != nil {
			close(sessions)
			for s := range sessions {
				s.Destroy()
			}
			opts.Destroy()
			return nil, fmt.Errorf("create onnx session %d/%d: %w", i+1, poolSize, err)
		}
		sessions <- session
	}

	log.Info().
		Str("model", filepath.Base(cfg.ModelPath)).
		Str("device", device).
		Int("sessions", poolSize).
		Msg("onnx runner ready")

	return &ONNX{
		sessions:   sessions,
		opts:       opts,
		poolSize:   poolSize,
		numOutputs: len(outputNames),
		log:        log,
	}, nil
}

// Run executes the model over the input tensors and copies every output out
// of onnxruntime-owned memory before returning.
func (r *ONNX) Run(ctx context.Context, inputs []Tensor) ([]Output, error) {
	if r == nil || r.sessions == nil {
		return nil, errors.New("onnx runner not initialized")
	}
	if len(inputs) == 0 {
		return nil, errors.New("no input tensors")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ortInputs := make([]ort.Value, 0, len(inputs))
	destroyAll := func(vals []ort.Value) {
		for _, v := range vals {
			if v != nil {
				v.Destroy()
			}
		}
	}
	for i, in := range inputs {
		if in.Rows*in.Cols != len(in.Data) {
			destroyAll(ortInputs)
			return nil, fmt.Errorf("input %d: shape [%d,%d] does not match %d elements", i, in.Rows, in.Cols, len(in.Data))
		}
		t, err := ort.NewTensor(ort.NewShape(int64(in.Rows), int64(in.Cols)), widenInt32(in.Data))
		if err != nil {
			destroyAll(ortInputs)
			return nil, fmt.Errorf("create input tensor %d: %w", i, err)
		}
		ortInputs = append(ortInputs, t)
	}
	defer destroyAll(ortInputs)

	session := <-r.sessions
	defer func() { r.sessions <- session }()

	// One slot per configured output name; nil entries are allocated by
	// onnxruntime during Run.
	ortOutputs := make([]ort.Value, r.numOutputs)
	if err := session.Run(ortInputs, ortOutputs); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	defer destroyAll(ortOutputs)

	outputs := make([]Output, 0, len(ortOutputs))
	for i, v := range ortOutputs {
		t, ok := v.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("output %d is not float32", i)
		}
		data := t.GetData()
		out := Output{
			Shape: append([]int64(nil), t.GetShape()...),
			Data:  append([]float32(nil), data...),
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// Close destroys the pooled sessions and shared options. It must only be
// called after every Run call has returned: a Run in flight would put its
// session back on the closed channel and panic.
func (r *ONNX) Close() error {
	if r == nil || r.sessions == nil {
		return nil
	}
	close(r.sessions)
	for s := range r.sessions {
		s.Destroy()
	}
	r.sessions = nil
	if r.opts != nil {
		r.opts.Destroy()
		r.opts = nil
	}
	return nil
}

// widenInt32 converts handler-side int32 tensor data to the int64 element
// type the transformer ONNX graphs expect.
func widenInt32(in []int32) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

// resolveSharedLibraryPath locates the onnxruntime shared library. An
// explicit override wins, then ONNXRUNTIME_SHARED_LIBRARY_PATH, then common
// names next to the model and in system locations.
func resolveSharedLibraryPath(override, modelDir string) string {
	if p := strings.TrimSpace(override); p != "" {
		return p
	}
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
