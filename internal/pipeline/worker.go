package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/ctxcache"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/generate"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/tier"
	"github.com/oogwaaay/novel-ai-platform-sub002/internal/versions"
)

// ProjectStore is the part of the version service the pipeline needs.
type ProjectStore interface {
	Head(projectID, branch string) (versions.Content, versions.CommitInfo, error)
	Commit(projectID, branch string, content versions.Content, author, message string) (versions.CommitInfo, error)
}

const generatedAuthor = "novel-ai"

// Worker processes a single generation job.
type Worker struct {
	projects ProjectStore
	llm      generate.Completer
	cache    ctxcache.Cache
	log      *slog.Logger

	// backoff is swapped out in tests.
	backoff func(attempt int) time.Duration
}

func NewWorker(projects ProjectStore, llm generate.Completer, cache ctxcache.Cache, log *slog.Logger) *Worker {
	return &Worker{
		projects: projects,
		llm:      llm,
		cache:    cache,
		log:      log,
		backoff:  Backoff,
	}
}

// Process runs compression, generation and the optional commit for job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	req := job.Request
	log := w.log.With("job_id", job.ID, "project_id", req.ProjectID, "branch", req.Branch)

	job.SetStatus(StatusCompressing, "loading context")
	title, text, err := w.loadContext(req)
	if err != nil {
		log.Error("load context failed", "error", err)
		job.Fail("loading context", err)
		return
	}

	t, err := tier.Lookup(req.Tier)
	if err != nil {
		job.Fail("compressing", err)
		return
	}
	strategy := t.Clamp(req.Strategy)
	if strategy != req.Strategy && req.Strategy != "" {
		job.AddError(fmt.Sprintf("strategy %q not available on tier %s, using %s", req.Strategy, t.Name, strategy))
	}

	job.SetStatus(StatusCompressing, "compressing")
	res, hit, err := ctxcache.Select(ctx, w.cache, text, t.ContextWindowWords, req.Characters, strategy)
	if err != nil {
		log.Warn("context cache degraded", "error", err)
	}
	job.SetCompression(Compression{
		Strategy:         strategy,
		OriginalWords:    res.OriginalLength,
		CompressedWords:  res.CompressedLength,
		CompressionRatio: res.CompressionRatio,
		CacheHit:         hit,
	})
	log.Info("context ready", "original_words", res.OriginalLength, "compressed_words", res.CompressedLength, "cache_hit", hit)

	job.SetStatus(StatusGenerating, "generating")
	prompt := generate.BuildContinuationPrompt(title, res.Compressed, req.Instruction)
	completion, err := w.complete(ctx, log, prompt, t.MaxOutputTokens)
	if err != nil {
		log.Error("generation failed", "error", err)
		job.Fail("generating", err)
		return
	}
	job.SetOutput(completion.Text, completion.TokensUsed())
	log.Info("generated", "tokens_used", completion.TokensUsed(), "prompt_tokens_est", compress.EstimateTokens(prompt))

	if req.AppendToProject {
		job.SetStatus(StatusGenerating, "saving")
		info, err := w.appendToProject(req, completion.Text)
		if err != nil {
			log.Error("append to project failed", "error", err)
			job.Fail("saving", err)
			return
		}
		job.SetCommit(info.Hash)
	}

	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) loadContext(req Request) (title, text string, err error) {
	if strings.TrimSpace(req.Context) != "" {
		return req.Title, req.Context, nil
	}
	if req.ProjectID == "" {
		return "", "", errors.New("either context or project_id is required")
	}
	content, _, err := w.projects.Head(req.ProjectID, branchOrDefault(req.Branch))
	if err != nil {
		return "", "", err
	}
	if req.Title != "" {
		content.Title = req.Title
	}
	return content.Title, content.Body, nil
}

// complete calls the model, retrying transient failures with backoff.
func (w *Worker) complete(ctx context.Context, log *slog.Logger, prompt string, maxTokens int) (generate.Completion, error) {
	var lastErr error
	for attempt := range MaxAttempts {
		out, err := w.llm.Complete(ctx, prompt, maxTokens)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !generate.IsRetryable(err) || attempt == MaxAttempts-1 {
			break
		}
		log.Warn("retryable generation error", "attempt", attempt, "error", err)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return generate.Completion{}, ctx.Err()
		}
	}
	return generate.Completion{}, lastErr
}

// appendToProject commits the generated text after the current branch head.
func (w *Worker) appendToProject(req Request, output string) (versions.CommitInfo, error) {
	if req.ProjectID == "" {
		return versions.CommitInfo{}, errors.New("append_to_project needs a project_id")
	}
	branch := branchOrDefault(req.Branch)
	head, _, err := w.projects.Head(req.ProjectID, branch)
	if err != nil {
		return versions.CommitInfo{}, err
	}

	body := output
	if strings.TrimSpace(head.Body) != "" {
		body = strings.TrimRight(head.Body, "\n") + "\n\n" + output
	}
	author := req.Author
	if author == "" {
		author = generatedAuthor
	}
	return w.projects.Commit(req.ProjectID, branch, versions.Content{Title: head.Title, Body: body}, author, "Append generated continuation")
}

func branchOrDefault(branch string) string {
	if branch == "" {
		return versions.DefaultBranch
	}
	return branch
}
