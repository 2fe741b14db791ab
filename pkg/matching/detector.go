// Package matching implements the fuzzy duplicate detection engine for agents
package matching

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// DetectorConfig contains configuration for the detector
type DetectorConfig struct {
	Workers  int  // Number of new agents classified concurrently (default: 1)
	Blocking bool // Compare only candidates sharing a blocking key (lossy, default: false)
}

// Detector annotates new agents with their best match in an existing pool
type Detector struct {
	logger     ectologger.Logger
	classifier *Classifier
	config     DetectorConfig
}

// NewDetector creates a new detector
func NewDetector(logger ectologger.Logger, classifier *Classifier, config DetectorConfig) *Detector {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Detector{
		logger:     logger,
		classifier: classifier,
		config:     config,
	}
}

// Detect returns one annotated agent per new agent, in input order. The
// existing pool is read only. The only error is context cancellation.
func (d *Detector) Detect(ctx context.Context, newAgents []models.Agent, existingAgents []models.Agent) ([]models.AnnotatedAgent, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Detector.Detect", tracing.AgentCount(len(newAgents)))
	defer span.End()

	start := time.Now()
	log := d.logger.WithContext(ctx).WithFields(map[string]any{
		"new_agents":      len(newAgents),
		"existing_agents": len(existingAgents),
		"workers":         d.config.Workers,
		"blocking":        d.config.Blocking,
	})
	log.Debug("Detecting duplicates")

	pool := make([]*models.Agent, len(existingAgents))
	for i := range existingAgents {
		pool[i] = &existingAgents[i]
	}

	var index *BlockingIndex
	if d.config.Blocking {
		index = NewBlockingIndex(pool)
	}

	annotated := make([]models.AnnotatedAgent, len(newAgents))
	classify := func(i int) {
		candidates := pool
		if index != nil {
			positions := index.Candidates(&newAgents[i])
			candidates = make([]*models.Agent, len(positions))
			for j, pos := range positions {
				candidates[j] = pool[pos]
			}
		}

		outcome := d.classifier.BestMatch(&newAgents[i], candidates)
		annotated[i] = Annotate(newAgents[i], outcome)
		metrics.ComparisonsTotal.Add(float64(len(candidates)))
	}

	if d.config.Workers == 1 {
		for i := range newAgents {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			classify(i)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.config.Workers)
		for i := range newAgents {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				classify(i)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	duplicates := 0
	for _, agent := range annotated {
		if agent.IsDuplicate {
			duplicates++
			metrics.AgentsCheckedTotal.WithLabelValues("duplicate").Inc()
		} else {
			metrics.AgentsCheckedTotal.WithLabelValues("unique").Inc()
		}
	}
	metrics.CandidatePoolSize.Observe(float64(len(existingAgents)))
	metrics.DetectDuration.Observe(time.Since(start).Seconds())

	log.WithFields(map[string]any{
		"duplicates":  duplicates,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Duplicate detection complete")

	return annotated, nil
}

// Annotate attaches a match outcome to the agent it was computed for
func Annotate(agent models.Agent, outcome models.MatchOutcome) models.AnnotatedAgent {
	return models.AnnotatedAgent{
		Agent:           agent,
		IsDuplicate:     outcome.IsDuplicate,
		DuplicateScore:  outcome.Confidence,
		DuplicateReason: strings.Join(outcome.TriggeredReasons, ", "),
		MatchedRecordID: outcome.MatchedRecordID,
	}
}
