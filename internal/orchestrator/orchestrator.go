// Package orchestrator runs the prompt pipeline: classification, contextual
// rewriting, argument extraction, execution and insight generation, with
// bounded conversation memory threaded through the stages.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"orderboard_agent/internal/executor"
	"orderboard_agent/internal/language"
	"orderboard_agent/internal/logger"
	"orderboard_agent/internal/memory"
	"orderboard_agent/internal/metrics"
	"orderboard_agent/internal/transcript"
	"orderboard_agent/pkg"
)

// SmallTalkSQL is the sentinel returned in the sql field for small-talk turns.
const SmallTalkSQL = "SMALL_TALK"

// Display modes for the response.
const (
	DisplayTable = "table"
	DisplayChart = "chart"
)

// Classifier assigns an intent to a prompt.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (*pkg.IntentResult, error)
}

// Rewriter folds history into the prompt. It degrades instead of failing.
type Rewriter interface {
	Rewrite(ctx context.Context, prompt string, history []pkg.Turn) pkg.RewriteResult
}

// Extractor produces the structured query specification.
type Extractor interface {
	Extract(ctx context.Context, prompt string, history []pkg.Turn) (*pkg.QueryArgs, error)
}

// InsightGenerator summarizes result rows in the user's language.
type InsightGenerator interface {
	Summarize(ctx context.Context, rows []map[string]any, lang string) string
}

// SmallTalker answers chit-chat prompts.
type SmallTalker interface {
	Reply(ctx context.Context, prompt string) string
}

// TranscriptCleaner normalizes voice transcripts into readable prompts.
type TranscriptCleaner interface {
	Clean(ctx context.Context, transcript string) (string, error)
}

// Options wires the pipeline's collaborators. Memory is required; Speech and
// Transcripts may be nil.
type Options struct {
	Classifier  Classifier
	Rewriter    Rewriter
	Extractor   Extractor
	Insights    InsightGenerator
	SmallTalk   SmallTalker
	Speech      TranscriptCleaner
	Executor    executor.Service
	Memory      *memory.ConversationMemory
	Transcripts transcript.Sink

	// MemoryPairs is how many user/assistant pairs of history feed the
	// rewriter and extractor. TerseTokens is the word-count threshold below
	// which a prompt is enriched with the last known customer context.
	MemoryPairs int
	TerseTokens int
}

// Pipeline is the agent's request processor. Safe for concurrent use; memory
// and the last-context heuristic are guarded by a single mutex.
type Pipeline struct {
	classifier  Classifier
	rewriter    Rewriter
	extractor   Extractor
	insights    InsightGenerator
	smallTalk   SmallTalker
	speech      TranscriptCleaner
	executor    executor.Service
	transcripts transcript.Sink

	memoryPairs int
	terseTokens int

	mu      sync.Mutex
	memory  *memory.ConversationMemory
	lastCtx memory.LastContext
}

// New creates a pipeline from opts, applying defaults for the tunables.
func New(opts Options) *Pipeline {
	if opts.MemoryPairs <= 0 {
		opts.MemoryPairs = 4
	}
	if opts.TerseTokens <= 0 {
		opts.TerseTokens = 4
	}
	if opts.Transcripts == nil {
		opts.Transcripts = transcript.NopSink{}
	}
	return &Pipeline{
		classifier:  opts.Classifier,
		rewriter:    opts.Rewriter,
		extractor:   opts.Extractor,
		insights:    opts.Insights,
		smallTalk:   opts.SmallTalk,
		speech:      opts.Speech,
		executor:    opts.Executor,
		transcripts: opts.Transcripts,
		memoryPairs: opts.MemoryPairs,
		terseTokens: opts.TerseTokens,
		memory:      opts.Memory,
		lastCtx:     memory.LastContext{Language: language.DefaultLanguage},
	}
}

// Process runs one request through the pipeline.
func (p *Pipeline) Process(ctx context.Context, req pkg.NLRequest) (*pkg.QueryResponse, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, pkg.NewPipelineError(pkg.StageValidation, pkg.KindClientError,
			fmt.Errorf("prompt must not be empty"))
	}

	if req.IsTranscript {
		if p.speech == nil {
			return nil, pkg.NewPipelineError(pkg.StageSpeech, pkg.KindInternal,
				fmt.Errorf("transcript input not supported"))
		}
		cleaned, err := p.speech.Clean(ctx, prompt)
		if err != nil {
			metrics.PipelineErrors.WithLabelValues(string(pkg.StageSpeech)).Inc()
			return nil, err
		}
		logger.Info().Str("prompt", cleaned).Msg("transcript input cleaned")
		prompt = cleaned
	}

	intentRes, err := p.classifier.Classify(ctx, prompt)
	if err != nil {
		metrics.PipelineErrors.WithLabelValues(string(pkg.StageClassify)).Inc()
		return nil, pkg.NewPipelineError(pkg.StageClassify, pkg.KindInternal, err)
	}
	if !intentRes.Intent.Valid() {
		metrics.PipelineErrors.WithLabelValues(string(pkg.StageClassify)).Inc()
		return nil, pkg.NewPipelineError(pkg.StageClassify, pkg.KindClientError,
			fmt.Errorf("not a valid intent: %q", intentRes.Intent))
	}
	metrics.IntentCount.WithLabelValues(string(intentRes.Intent)).Inc()

	logger.Info().
		Str("prompt", prompt).
		Str("intent", string(intentRes.Intent)).
		Msg("intent classified")

	if intentRes.Intent == pkg.IntentSmallTalk {
		return p.handleSmallTalk(ctx, prompt), nil
	}
	return p.handleDataQuery(ctx, prompt, intentRes.Intent)
}

func (p *Pipeline) handleSmallTalk(ctx context.Context, prompt string) *pkg.QueryResponse {
	reply := p.smallTalk.Reply(ctx, prompt)
	return &pkg.QueryResponse{
		Success:     true,
		Data:        []any{reply},
		Count:       1,
		SQL:         SmallTalkSQL,
		Args:        map[string]any{},
		DisplayMode: DisplayTable,
		Language:    language.DefaultLanguage,
	}
}

func (p *Pipeline) handleDataQuery(ctx context.Context, prompt string, intent pkg.Intent) (*pkg.QueryResponse, error) {
	p.mu.Lock()
	history := p.memory.Recent(p.memoryPairs)
	lastCustomer := p.lastCtx.Customer
	p.mu.Unlock()

	// Terse follow-ups like "now only 20" lose their subject. Pin them to the
	// last customer the conversation was about.
	if lastCustomer != "" && len(strings.Fields(prompt)) <= p.terseTokens {
		prompt = fmt.Sprintf("%s, still for %s", prompt, lastCustomer)
		logger.Debug().Str("prompt", prompt).Msg("prompt enriched with customer context")
	}

	rewrite := p.rewriter.Rewrite(ctx, prompt, history)
	logger.Info().
		Str("rewritten", rewrite.RewrittenQuestion).
		Str("language", rewrite.Language).
		Msg("prompt rewritten")

	// The user turn is remembered even if extraction fails, so a retry can
	// still lean on it as context.
	p.mu.Lock()
	p.memory.Append(pkg.Turn{Role: pkg.RoleUser, Content: prompt})
	metrics.MemoryTurns.Set(float64(p.memory.Len()))
	p.mu.Unlock()

	args, err := p.extractor.Extract(ctx, rewrite.RewrittenQuestion, history)
	if err != nil {
		metrics.PipelineErrors.WithLabelValues(string(pkg.StageExtract)).Inc()
		return nil, pkg.NewPipelineError(pkg.StageExtract, pkg.KindInternal, err)
	}

	payload := args.Payload()
	result, err := p.executor.Execute(ctx, payload)
	if err != nil {
		metrics.PipelineErrors.WithLabelValues(string(pkg.StageExecute)).Inc()
		return nil, err
	}

	serialized, err := sonic.Marshal(payload)
	if err != nil {
		serialized = []byte("{}")
	}

	// The assistant turn is the argument set, not the row data: it is what a
	// follow-up prompt needs to refine the query.
	p.mu.Lock()
	p.memory.Append(pkg.Turn{Role: pkg.RoleAssistant, Content: string(serialized)})
	metrics.MemoryTurns.Set(float64(p.memory.Len()))
	p.lastCtx.Filters = args.Where
	p.lastCtx.Select = args.Select
	p.lastCtx.Language = rewrite.Language
	for _, cond := range args.Where {
		if strings.Contains(cond, "customer_name") || strings.Contains(cond, "customer_id") {
			p.lastCtx.Customer = rewrite.RewrittenQuestion
			break
		}
	}
	p.mu.Unlock()

	transcript.Log(ctx, p.transcripts, prompt, string(serialized))

	var insights string
	if len(result.Data) > 0 {
		insights = p.insights.Summarize(ctx, result.Data, rewrite.Language)
	}

	displayMode := DisplayTable
	if intent == pkg.IntentVisualInsight {
		displayMode = DisplayChart
	}

	rows := make([]any, 0, len(result.Data))
	for _, row := range result.Data {
		rows = append(rows, row)
	}

	return &pkg.QueryResponse{
		Success:     true,
		Data:        rows,
		Count:       result.Count,
		SQL:         result.SQL,
		Args:        payload,
		Insights:    insights,
		DisplayMode: displayMode,
		Language:    rewrite.Language,
	}, nil
}

// MemorySnapshot returns a preview of the cached conversation turns.
func (p *Pipeline) MemorySnapshot() []pkg.Turn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.memory.Snapshot()
}

// ClearMemory drops all cached turns. The last-context heuristic is left
// untouched: it is advisory and gets overwritten by the next data query.
func (p *Pipeline) ClearMemory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.memory.Clear()
	metrics.MemoryTurns.Set(0)
}
