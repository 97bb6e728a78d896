package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/labelbatch/labelbatch/internal/classifier"
	"github.com/labelbatch/labelbatch/internal/config"
)

// requestFile is the on-disk batch format: an array of {id, text} objects.
type requestFile []struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func main() {
	modelDir := flag.String("model", "", "path to the model directory (required)")
	cfgPath := flag.String("config", "labelbatch.yaml", "path to the serving config file")
	requestsPath := flag.String("requests", "", "path to a JSON file with the request batch (required)")
	warmup := flag.Bool("warmup", false, "run one warmup batch before the timed one")
	dryRun := flag.Bool("dry-run", false, "stub the model runner; exercises tokenization and demux only")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *modelDir == "" || *requestsPath == "" {
		log.Fatal().Msg("-model and -requests flags are required")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *cfgPath).Msg("failed to load config")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		log = log.Level(lvl)
	}

	batch, err := readBatch(*requestsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *requestsPath).Msg("failed to read request batch")
	}

	var handler *classifier.Handler
	if *dryRun {
		handler, err = classifier.LoadDryRun(*modelDir, log)
	} else {
		handler, err = classifier.Load(*modelDir, cfg, log)
	}
	if err != nil {
		log.Fatal().Err(err).Str("model_dir", *modelDir).Msg("failed to load model")
	}

	// From here on every exit path must release the session pool, so errors
	// return a code instead of calling log.Fatal.
	code := run(handler, batch, *warmup, log)
	if err := handler.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close handler")
	}
	if code != 0 {
		os.Exit(code)
	}
}

func run(handler *classifier.Handler, batch []classifier.Request, warmup bool, log zerolog.Logger) int {
	ctx := context.Background()

	if warmup {
		d, err := handler.Warmup(ctx, "hello world")
		if err != nil {
			log.Error().Err(err).Msg("warmup failed")
			return 1
		}
		log.Info().Dur("took", d).Msg("warmup done")
	}

	responses, err := handler.Handle(ctx, batch)
	if err != nil {
		// Per-request error responses below still describe each identity.
		log.Error().Err(err).Msg("batch failed")
	}

	ids := make([]string, 0, len(responses))
	for id := range responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		resp := responses[id]
		fmt.Printf("%s\t%d\t%s\n", id, resp.StatusCode, resp.Body)
	}

	if err != nil {
		return 1
	}
	return 0
}

func readBatch(path string) ([]classifier.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries requestFile
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode request batch: %w", err)
	}

	batch := make([]classifier.Request, 0, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			id = fmt.Sprintf("req-%d", i)
		}
		req := classifier.Request{ID: id}
		if e.Text != "" {
			req.Parameters = map[string][]byte{classifier.ParameterData: []byte(e.Text)}
			req.Headers = map[string]string{classifier.HeaderDataType: classifier.DataTypeString}
		}
		batch = append(batch, req)
	}
	return batch, nil
}
