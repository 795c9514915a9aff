// Package ingest loads local documents into the knowledge base searched by
// vectorDatabaseSearch.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultChunkSize   = 1200
	DefaultConcurrency = 4

	// TaskRetrievalDocument is the embedding task type for indexed chunks.
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

// Index stores one embedded chunk.
type Index interface {
	Upsert(ctx context.Context, source string, chunk int, content string, embedding []float32) error
}

// Ingester chunks, embeds and stores files.
type Ingester struct {
	Embedder    Embedder
	Index       Index
	ChunkSize   int
	Concurrency int
}

// Result summarizes one run.
type Result struct {
	Files  int
	Chunks int64
}

// Ingest walks paths (files or directories) and indexes every .md and .txt
// file. Re-ingesting a file overwrites its chunks.
func (in *Ingester) Ingest(ctx context.Context, paths []string) (Result, error) {
	files, err := collectFiles(paths)
	if err != nil {
		return Result{}, err
	}

	limit := in.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var chunks atomic.Int64
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for _, file := range files {
		eg.Go(func() error {
			n, err := in.ingestFile(egCtx, file)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			chunks.Add(int64(n))
			log.Info().Str("file", file).Int("chunks", n).Msg("Ingested document")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}
	return Result{Files: len(files), Chunks: chunks.Load()}, nil
}

func (in *Ingester) ingestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	size := in.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := ChunkText(string(data), size)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := in.Embedder.Embed(ctx, chunks, TaskRetrievalDocument)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))
	}

	source := filepath.Base(path)
	for i, chunk := range chunks {
		if err := in.Index.Upsert(ctx, source, i, chunk, vectors[i]); err != nil {
			return 0, err
		}
	}
	return len(chunks), nil
}

func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".md", ".txt":
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", root, err)
		}
	}
	return files, nil
}

// ChunkText splits text on blank lines and packs paragraphs into chunks of
// at most size runes. A paragraph longer than size is split on its own.
func ChunkText(text string, size int) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		currentLen = 0
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		runes := []rune(para)
		if len(runes) > size {
			flush()
			for start := 0; start < len(runes); start += size {
				end := min(start+size, len(runes))
				chunks = append(chunks, strings.TrimSpace(string(runes[start:end])))
			}
			continue
		}
		if currentLen > 0 && currentLen+2+len(runes) > size {
			flush()
		}
		if currentLen > 0 {
			current.WriteString("\n\n")
			currentLen += 2
		}
		current.WriteString(para)
		currentLen += len(runes)
	}
	flush()
	return chunks
}
