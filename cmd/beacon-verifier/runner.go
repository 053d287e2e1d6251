// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iper-jkane/beacon-verifier/internal/config"
	"github.com/iper-jkane/beacon-verifier/internal/endpoint"
	"github.com/iper-jkane/beacon-verifier/internal/extract"
	"github.com/iper-jkane/beacon-verifier/internal/mirror"
	"github.com/iper-jkane/beacon-verifier/internal/probe"
	"github.com/iper-jkane/beacon-verifier/internal/schema"
)

// checkResult is the outcome of one conformance check.
type checkResult struct {
	Name   string
	URL    string
	Passed bool
	Reason string
}

// runCheck loads the manifest, optionally mirrors the schema bundle into the
// cache directory, and sweeps every configured check concurrently.
func runCheck(ctx context.Context, configPath string, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	root, err := cfg.Root()
	if err != nil {
		return err
	}

	// Schema paths resolve against schema_dir when set, else against the
	// manifest's own directory.
	schemaBase := filepath.Dir(configPath)
	if cfg.SchemaDir != "" {
		schemaBase = resolveDir(configPath, cfg.SchemaDir)
	}
	if cfg.SchemaDir != "" && cfg.CacheDir != "" {
		cacheDir := resolveDir(configPath, cfg.CacheDir)
		logger.Info("mirroring schema bundle",
			zap.String("from", schemaBase),
			zap.String("to", cacheDir),
		)
		if err := mirror.CopyDir(schemaBase, cacheDir, logger); err != nil {
			return fmt.Errorf("mirroring schemas: %w", err)
		}
		schemaBase = cacheDir
	}

	logger.Info("starting conformance sweep",
		zap.String("root_url", cfg.RootURL),
		zap.Int("check_count", len(cfg.Checks)),
		zap.Int("entity_count", len(cfg.Entities)),
	)

	prober := probe.New(&http.Client{Timeout: cfg.ProbeTimeout()}, logger)
	extractor := extract.New(prober, logger)
	resultsCh := make(chan checkResult, len(cfg.Checks)+len(cfg.Entities))

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, chk := range cfg.Checks {
		grp.Go(func() error {
			resultsCh <- runOne(grpCtx, prober, root, chk, schemaBase, logger)
			return nil
		})
	}
	for _, ent := range cfg.Entities {
		grp.Go(func() error {
			resultsCh <- runEntity(grpCtx, extractor, root, ent, logger)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		close(resultsCh)
		return fmt.Errorf("awaiting checks: %w", err)
	}
	close(resultsCh)

	var results []checkResult
	for res := range resultsCh {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	failed := 0
	for _, res := range results {
		if res.Passed {
			fmt.Printf("PASS  %s  %s\n", res.Name, res.URL)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s  %s\n      %s\n", res.Name, res.URL, res.Reason)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	logger.Info("all checks passed", zap.Int("check_count", len(results)))
	return nil
}

// runOne executes a single check: compose the endpoint URL, substitute
// template variables, probe, and validate against the check's schema when
// one is configured.
func runOne(ctx context.Context, prober *probe.Prober, root *url.URL, chk config.Check, schemaBase string, logger *zap.Logger) checkResult {
	name := chk.Name
	if name == "" {
		name = chk.Path
	}

	rel, err := url.Parse(chk.Path)
	if err != nil {
		return checkResult{Name: name, Passed: false, Reason: fmt.Sprintf("path %q does not parse: %v", chk.Path, err)}
	}
	target := endpoint.Join(root, rel)

	if len(chk.Vars) > 0 {
		names := make([]string, 0, len(chk.Vars))
		for n := range chk.Vars {
			names = append(names, n)
		}
		sort.Strings(names)
		vars := make([]endpoint.Var, 0, len(names))
		for _, n := range names {
			vars = append(vars, endpoint.Var{Name: n, Value: chk.Vars[n]})
		}
		target, err = endpoint.SubstituteVars(target, vars)
		if err != nil {
			return checkResult{Name: name, Passed: false, Reason: err.Error()}
		}
	}

	result := checkResult{Name: name, URL: target.String()}
	document, err := prober.Probe(ctx, target)
	if err != nil {
		result.Reason = err.Error()
		return result
	}

	if chk.Schema != "" {
		schemaPath := chk.Schema
		if !filepath.IsAbs(schemaPath) {
			schemaPath = filepath.Join(schemaBase, schemaPath)
		}
		compiled, err := schema.CompileFile(schemaPath, logger)
		if err != nil {
			result.Reason = err.Error()
			return result
		}
		if _, err := compiled.Validate(document); err != nil {
			var verr *schema.ValidationError
			if errors.As(err, &verr) {
				result.Reason = verr.Report()
			} else {
				result.Reason = err.Error()
			}
			return result
		}
	}

	result.Passed = true
	return result
}

// runEntity checks an entity-listing endpoint: its response must follow the
// result-set shape. An unreachable endpoint lists zero identifiers and still
// passes; only a malformed response fails.
func runEntity(ctx context.Context, extractor *extract.Extractor, root *url.URL, ent config.Entity, logger *zap.Logger) checkResult {
	name := ent.Name
	if name == "" {
		name = ent.Path
	}

	rel, err := url.Parse(ent.Path)
	if err != nil {
		return checkResult{Name: name, Passed: false, Reason: fmt.Sprintf("path %q does not parse: %v", ent.Path, err)}
	}
	result := checkResult{Name: name, URL: endpoint.Join(root, rel).String()}

	ids, err := extractor.IDs(ctx, root, rel)
	if err != nil {
		result.Reason = err.Error()
		return result
	}
	logger.Info("entity identifiers listed",
		zap.String("entity", name),
		zap.Int("count", len(ids)),
	)
	result.Passed = true
	return result
}

// resolveDir resolves dir against the manifest's own directory, so relative
// manifest paths behave the same no matter where the CLI is invoked from.
func resolveDir(configPath, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(filepath.Dir(configPath), dir)
}
