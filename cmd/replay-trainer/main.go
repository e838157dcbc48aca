// Command replay-trainer replays a JSONL log of recorded experiences
// through the background trainer (C8) offline, outside the normal
// ticker-driven loop a live server runs. Useful for bootstrapping a
// model from a previous session's traffic before bringing a fresh
// Queen online.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samuelfneumann/progressbar"

	"github.com/kaushikhazra/nexus-of-mind/queen/network"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
	"github.com/kaushikhazra/nexus-of-mind/queen/replay"
	"github.com/kaushikhazra/nexus-of-mind/queen/trainer"
)

// record is the JSONL wire shape for one logged experience. Mirrors
// queenobs.Experience field-for-field; kept separate so the on-disk
// log format doesn't silently break if the in-memory type grows
// fields the log doesn't carry.
type record struct {
	Observation    queenobs.FeatureVector `json:"observation"`
	TopChunkIDs    queenobs.TopChunkIDs   `json:"topChunkIds"`
	SpawnChunk     int                    `json:"spawnChunk"`
	SpawnType      int                    `json:"spawnType"`
	Quantity       int                    `json:"quantity"`
	NNConfidence   float64                `json:"nnConfidence"`
	GateSignal     float64                `json:"gateSignal"`
	ExpectedReward float64                `json:"expectedReward"`
	WasExecuted    bool                   `json:"wasExecuted"`
	ActualReward   *float64               `json:"actualReward,omitempty"`
	TerritoryID    string                 `json:"territoryId"`
	ModelVersion   int                    `json:"modelVersion"`
	Timestamp      time.Time              `json:"timestamp"`
}

func (r record) toExperience() queenobs.Experience {
	return queenobs.Experience{
		Observation:    r.Observation,
		TopChunkIDs:    r.TopChunkIDs,
		SpawnChunk:     r.SpawnChunk,
		SpawnType:      queenobs.ParasiteType(r.SpawnType),
		Quantity:       r.Quantity,
		NNConfidence:   r.NNConfidence,
		GateSignal:     r.GateSignal,
		ExpectedReward: r.ExpectedReward,
		WasExecuted:    r.WasExecuted,
		ActualReward:   r.ActualReward,
		TerritoryID:    r.TerritoryID,
		ModelVersion:   r.ModelVersion,
		Timestamp:      r.Timestamp,
	}
}

func main() {
	logPath := flag.String("log", "", "path to a JSONL experience log")
	modelDir := flag.String("model-dir", "", "directory to load/save policy weights")
	batchSize := flag.Int("batch-size", 32, "experiences trained per step")
	bufferCap := flag.Int("buffer-capacity", 10000, "replay buffer capacity")
	quiet := flag.Bool("quiet", false, "suppress the progress bar")
	flag.Parse()

	logger := log.New(os.Stderr).With("component", "replay-trainer")

	if *logPath == "" || *modelDir == "" {
		fmt.Fprintln(os.Stderr, "usage: replay-trainer -log experiences.jsonl -model-dir ./model")
		os.Exit(2)
	}

	runID := uuid.NewString()
	logger.Info("starting replay run", "runId", runID, "log", *logPath, "modelDir", *modelDir)

	model, err := network.NewPolicyNetwork(network.DefaultHyperParams())
	if err != nil {
		logger.Fatal("build policy network", "err", err)
	}

	loadResult, err := model.Load(*modelDir)
	if err != nil {
		logger.Fatal("load model", "err", err)
	}
	meta := loadResult.Meta
	if loadResult.Loaded {
		logger.Info("resumed model", "version", meta.Version, "bestLoss", meta.BestLoss)
	} else {
		meta.CreatedAt = time.Now()
		logger.Info("no compatible saved model found, starting fresh")
	}

	f, err := os.Open(*logPath)
	if err != nil {
		logger.Fatal("open log", "err", err)
	}
	defer f.Close()

	experiences, err := readAll(f)
	if err != nil {
		logger.Fatal("read log", "err", err)
	}
	logger.Info("loaded experiences", "count", len(experiences))

	buf := replay.New(replay.Config{Capacity: *bufferCap, LockTimeout: 5 * time.Second}, logger)
	for _, e := range experiences {
		buf.Add(e)
	}
	batch := buf.Drain()

	t := trainer.New(trainer.Config{BatchSize: *batchSize, SaveDir: *modelDir, SaveEveryNRuns: 0}, model, buf, meta, logger)

	steps := (len(batch) + *batchSize - 1) / *batchSize
	var bar *progressbar.ProgressBar
	if !*quiet && steps > 0 {
		bar = progressbar.New(50, steps, time.Second, true)
		bar.Display()
	}

	var lastLoss float64
	for start := 0; start < len(batch); start += *batchSize {
		end := start + *batchSize
		if end > len(batch) {
			end = len(batch)
		}
		lastLoss = t.StepBatch(batch[start:end])
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.AddMessage(fmt.Sprintf("last avg loss: %.4f", lastLoss))
		bar.Close()
	}

	if err := t.Flush(); err != nil {
		logger.Fatal("final save", "err", err)
	}
	logger.Info("replay run complete", "runId", runID, "finalVersion", t.CurrentVersion(), "lastAvgLoss", lastLoss)
}

// readAll decodes every JSONL line in r into an Experience, skipping
// blank lines.
func readAll(r io.Reader) ([]queenobs.Experience, error) {
	var out []queenobs.Experience
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %v", lineNo, err)
		}
		out = append(out, rec.toExperience())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
