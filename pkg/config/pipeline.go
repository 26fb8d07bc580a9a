package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/pkg/engine"
	"github.com/marmos91/dittosync/pkg/filter"
	"github.com/marmos91/dittosync/pkg/filter/extractor"
	"github.com/marmos91/dittosync/pkg/listfile"
	"github.com/marmos91/dittosync/pkg/storage"
)

// Pipeline is a fully wired extraction run: source, extractor chain, target
// and the worker pool driving them.
type Pipeline struct {
	Source Source
	Target storage.Target
	Chain  *filter.Chain
	Engine *engine.Engine

	listFile string
}

// InitializePipeline creates every component described by cfg.
//
// This function orchestrates the complete initialization process:
//  1. Creates the source backend from cfg.Source
//  2. Creates the target backend from cfg.Target
//  3. Builds the chain: extractor, then the target
//  4. Creates the engine from cfg.Engine
//
// On failure every component created so far is closed.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	p, err := config.InitializePipeline(ctx, cfg)
//	if err != nil {
//	    log.Fatalf("Failed to initialize pipeline: %v", err)
//	}
//	defer p.Close()
//	stats, err := p.Run(ctx)
func InitializePipeline(ctx context.Context, cfg *Config) (*Pipeline, error) {
	logger.Debug("Initializing pipeline from configuration")

	// Step 1: Source
	source, err := CreateSource(ctx, &cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	logger.Debug("Created %s source", cfg.Source.Type)

	// Step 2: Target
	target, err := CreateTarget(ctx, &cfg.Target)
	if err != nil {
		_ = source.Close()
		return nil, fmt.Errorf("failed to create target: %w", err)
	}
	logger.Debug("Created %s target", cfg.Target.Type)

	// Step 3: Chain
	chain, err := filter.NewChain(source, target, extractor.New(cfg.Extractor, source))
	if err != nil {
		_ = target.Close()
		_ = source.Close()
		return nil, fmt.Errorf("failed to build filter chain: %w", err)
	}

	// Step 4: Engine
	return &Pipeline{
		Source:   source,
		Target:   target,
		Chain:    chain,
		Engine:   engine.New(cfg.Engine, chain),
		listFile: cfg.ListFile,
	}, nil
}

// Summaries opens the objects of the run: the list file when one is
// configured, otherwise the source's own listing. The returned closer must
// be called once the summaries are consumed.
func (p *Pipeline) Summaries(ctx context.Context) (engine.Summaries, func() error, error) {
	if p.listFile != "" {
		reader, err := listfile.Open(p.listFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Reading objects from list file %s", p.listFile)
		return reader, reader.Close, nil
	}

	lister, ok := p.Source.(storage.Lister)
	if !ok {
		return nil, nil, fmt.Errorf("source %s cannot list its objects and no list file is configured", p.Source.Name())
	}

	summaries, err := lister.ListSummaries(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list source %s: %w", p.Source.Name(), err)
	}
	logger.Info("Listed %d objects from source %s", len(summaries), p.Source.Name())
	return engine.FromSlice(summaries), func() error { return nil }, nil
}

// Run processes every object of the run.
func (p *Pipeline) Run(ctx context.Context) (engine.Stats, error) {
	summaries, closeSummaries, err := p.Summaries(ctx)
	if err != nil {
		return engine.Stats{}, err
	}
	defer func() {
		if err := closeSummaries(); err != nil {
			logger.Warn("Failed to close list file: %v", err)
		}
	}()

	return p.Engine.Run(ctx, summaries)
}

// Close closes the target, then the source.
func (p *Pipeline) Close() error {
	return errors.Join(p.Target.Close(), p.Source.Close())
}
