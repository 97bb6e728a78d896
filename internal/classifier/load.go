package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/labelbatch/labelbatch/internal/config"
	"github.com/labelbatch/labelbatch/internal/runner"
	"github.com/labelbatch/labelbatch/internal/tokenizer"
)

const (
	classMappingFile = "index_to_name.json"
	modelConfigFile  = "config.json"
)

type modelConfig struct {
	MaxLength     int    `json:"max_length"`
	TokenizerPath string `json:"tokenizer_path"`
	ModelPath     string `json:"model_path"`
	// ModelSOPath is the historical name for the compiled artifact path.
	ModelSOPath string `json:"model_so_path"`
}

func (c modelConfig) artifactPath() string {
	if strings.TrimSpace(c.ModelPath) != "" {
		return c.ModelPath
	}
	return c.ModelSOPath
}

// Load reads the model directory artifacts (class mapping, model config,
// tokenizer definition), builds the ONNX runner for the configured device,
// and returns a ready Handler. Any missing file or key is fatal: an error
// here means no requests can be served.
func Load(modelDir string, cfg *config.Config, log zerolog.Logger) (*Handler, error) {
	tok, mapping, mc, err := loadArtifacts(modelDir)
	if err != nil {
		return nil, err
	}

	run, err := runner.NewONNX(runner.ONNXConfig{
		ModelPath:      filepath.Join(modelDir, filepath.FromSlash(mc.artifactPath())),
		Device:         cfg.Runtime.Device,
		Sessions:       cfg.Runtime.Sessions,
		IntraOpThreads: cfg.Runtime.IntraOpThreads,
		InterOpThreads: cfg.Runtime.InterOpThreads,
		LibraryPath:    cfg.Runtime.LibraryPath,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("load model runner: %w", err)
	}

	log.Info().
		Str("model_dir", modelDir).
		Int("max_length", mc.MaxLength).
		Int("classes", len(mapping)).
		Msg("model loaded")

	return New(tok, run, mapping, mc.MaxLength, log)
}

// LoadDryRun builds a Handler over a stub runner that scores every row as
// class 0. It exercises the whole pipeline minus the model and needs no
// onnxruntime library.
func LoadDryRun(modelDir string, log zerolog.Logger) (*Handler, error) {
	tok, mapping, mc, err := loadArtifacts(modelDir)
	if err != nil {
		return nil, err
	}
	log.Warn().Str("model_dir", modelDir).Msg("dry run: model outputs are stubbed")
	return New(tok, &runner.Static{NumClasses: len(mapping)}, mapping, mc.MaxLength, log)
}

// loadArtifacts resolves everything in the model directory that does not
// need the onnxruntime library, so it stays testable without one.
func loadArtifacts(modelDir string) (tokenizer.Tokenizer, map[string]string, modelConfig, error) {
	var mc modelConfig

	mapping, err := loadClassMapping(filepath.Join(modelDir, classMappingFile))
	if err != nil {
		return nil, nil, mc, fmt.Errorf("load class mapping: %w", err)
	}

	mc, err = loadModelConfig(filepath.Join(modelDir, modelConfigFile))
	if err != nil {
		return nil, nil, mc, fmt.Errorf("load model config: %w", err)
	}

	tok, err := loadTokenizer(filepath.Join(modelDir, filepath.FromSlash(mc.TokenizerPath)))
	if err != nil {
		return nil, nil, mc, fmt.Errorf("load tokenizer: %w", err)
	}

	return tok, mapping, mc, nil
}

// loadClassMapping reads index_to_name.json. The object form maps decimal
// class indices to labels; the array form is positional.
func loadClassMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err == nil && len(m) > 0 {
		for k := range m {
			if _, convErr := strconv.Atoi(k); convErr != nil {
				return nil, fmt.Errorf("invalid class index %q: %w", k, convErr)
			}
		}
		return m, nil
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, fmt.Errorf("class mapping in %s is empty", path)
	}
	m = make(map[string]string, len(arr))
	for i, label := range arr {
		m[strconv.Itoa(i)] = label
	}
	return m, nil
}

func loadModelConfig(path string) (modelConfig, error) {
	var mc modelConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return mc, err
	}
	if err := json.Unmarshal(data, &mc); err != nil {
		return mc, err
	}
	if mc.MaxLength <= 0 {
		return mc, fmt.Errorf("max_length must be positive, got %d", mc.MaxLength)
	}
	if strings.TrimSpace(mc.TokenizerPath) == "" {
		return mc, fmt.Errorf("tokenizer_path missing from %s", path)
	}
	if strings.TrimSpace(mc.artifactPath()) == "" {
		return mc, fmt.Errorf("model_path missing from %s", path)
	}
	return mc, nil
}

// loadTokenizer reads the tokenizer definition blob: a vocab.txt wordlist or
// a tokenizer.json definition.
func loadTokenizer(path string) (tokenizer.Tokenizer, error) {
	if strings.HasSuffix(path, "vocab.txt") {
		return tokenizer.LoadVocab(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tokenizer.FromBlob(data)
}
