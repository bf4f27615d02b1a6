// Command dwcarchive fetches the survey source tables, transforms them into
// a Darwin Core Archive and stores the packaged result.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dwcarchive/internal/blob"
	"dwcarchive/internal/config"
	"dwcarchive/internal/diag"
	"dwcarchive/internal/erddap"
	"dwcarchive/internal/mappingschema"
	"dwcarchive/internal/pipeline"
	"dwcarchive/internal/runlog"
	"dwcarchive/internal/source"
	"dwcarchive/internal/table"
)

func main() {
	schemaPath := flag.String("schema", "", "mapping schema path (overrides DWCA_SCHEMA_PATH)")
	metadataPath := flag.String("metadata", "", "metadata key=value file (overrides DWCA_METADATA_PATH)")
	cachePath := flag.String("cache", "", "sqlite dataset cache path (overrides DWCA_CACHE_PATH)")
	outPath := flag.String("out", "", "also write the archive zip to this local path")
	trace := flag.Bool("trace", false, "emit JSON trace spans to stderr")
	flag.Parse()

	if err := run(*schemaPath, *metadataPath, *cachePath, *outPath, *trace); err != nil {
		fmt.Fprintf(os.Stderr, "dwcarchive: %v\n", err)
		os.Exit(1)
	}
}

func run(schemaPath, metadataPath, cachePath, outPath string, trace bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if schemaPath != "" {
		cfg.SchemaPath = schemaPath
	}
	if metadataPath != "" {
		cfg.MetadataPath = metadataPath
	}
	if cachePath != "" {
		cfg.CachePath = cachePath
	}

	var schema *mappingschema.Schema
	if cfg.SchemaPath != "" {
		loaded, diags, err := mappingschema.Load(cfg.SchemaPath)
		if err != nil {
			return fmt.Errorf("load mapping schema: %w", err)
		}
		printDiagnostics(diags)
		schema = loaded
	}

	metadata, err := cfg.Metadata()
	if err != nil {
		return err
	}

	client := erddap.NewClient(cfg.ERDDAPServer, &http.Client{Timeout: cfg.RequestTimeout})
	var cache source.Cache
	if cfg.CachePath != "" {
		sqliteCache, err := source.NewSQLiteCache(cfg.CachePath)
		if err != nil {
			return fmt.Errorf("open dataset cache: %w", err)
		}
		defer sqliteCache.Close()
		cache = sqliteCache
	}
	loader := source.NewLoader(client, cache)

	load := func(id string) (*table.Table, error) {
		tbl, err := loader.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load dataset %s: %w", id, err)
		}
		fmt.Fprintf(os.Stderr, "loaded %s (%d rows)\n", id, tbl.NumRows())
		return tbl, nil
	}
	tows, err := load(cfg.TowsDataset)
	if err != nil {
		return err
	}
	catch, err := load(cfg.CatchDataset)
	if err != nil {
		return err
	}
	species, err := load(cfg.SpeciesDataset)
	if err != nil {
		return err
	}

	store, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	runs, err := runlog.Open(cfg.RunlogDriver, cfg.RunlogDSN)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer runs.Close()

	opts := []pipeline.Option{pipeline.WithMetricsRecorder(pipeline.NewExpvarMetricsRecorder("dwcarchive"))}
	if trace {
		opts = append(opts, pipeline.WithTracer(pipeline.NewJSONTracer(os.Stderr)))
	}

	worker := pipeline.NewWorker(pipeline.NewService(opts...), store, runs)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = worker.Stop(stopCtx)
	}()

	job, err := worker.Enqueue(ctx, pipeline.Inputs{
		Tows:    tows,
		Catch:   catch,
		Species: species,
		Schema:  schema,
		Sources: pipeline.SourceNames{
			Tows:    cfg.TowsSource,
			Catch:   cfg.CatchSource,
			Species: cfg.SpeciesSource,
		},
		Metadata: metadata,
	})
	if err != nil {
		return err
	}

	final, err := awaitJob(ctx, worker, job.ID)
	if err != nil {
		return err
	}
	printDiagnostics(final.Diagnostics)
	if final.Status == pipeline.JobFailed {
		return fmt.Errorf("%s", final.Error)
	}
	fmt.Fprintf(os.Stderr, "archive stored at %s (%d bytes)\n", final.ArchiveKey, final.ArchiveSize)

	if outPath != "" {
		if err := copyArchive(ctx, store, final.ArchiveKey, outPath); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		fmt.Fprintf(os.Stderr, "archive copied to %s\n", outPath)
	}
	return nil
}

func awaitJob(ctx context.Context, worker *pipeline.Worker, id string) (pipeline.Job, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		job, ok := worker.Get(id)
		if !ok {
			return pipeline.Job{}, fmt.Errorf("job %s not found", id)
		}
		if job.Status == pipeline.JobSucceeded || job.Status == pipeline.JobFailed {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return pipeline.Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func copyArchive(ctx context.Context, store blob.Store, key, path string) error {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printDiagnostics(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", d)
	}
}
