// Command pagewriterctl opens a writer session against a directory, commits
// a handful of synthetic revisions, prints the resulting stats, and
// demonstrates TruncateTo — exercising the full write path end to end.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/kvwal/pagewriter/internal/asyncio"
	"github.com/kvwal/pagewriter/internal/cache"
	"github.com/kvwal/pagewriter/internal/config"
	"github.com/kvwal/pagewriter/internal/logging"
	"github.com/kvwal/pagewriter/internal/page"
	"github.com/kvwal/pagewriter/internal/pager"
	"github.com/kvwal/pagewriter/internal/transform"
	"github.com/kvwal/pagewriter/internal/txn"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	revisions := flag.Int("revisions", 3, "number of synthetic revisions to commit")
	flag.Parse()

	if err := run(*configPath, *revisions); err != nil {
		fmt.Fprintln(os.Stderr, "pagewriterctl:", err)
		os.Exit(1)
	}
}

func run(configPath string, revisionCount int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)

	sessionID := uuid.New()
	logger.Info("starting session", "session_id", sessionID.String(), "data_dir", cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pool := asyncio.NewPool(cfg.WorkerPoolSize)
	dataFile, err := pager.OpenAsyncFile(filepath.Join(cfg.DataDir, "pagewriter.data"), pool)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	revFile, err := pager.OpenAsyncFile(filepath.Join(cfg.DataDir, "pagewriter.revisions"), pool)
	if err != nil {
		return fmt.Errorf("open revisions file: %w", err)
	}

	handler := buildTransformChain(cfg)
	revCache := cache.NewRevisionCache(1024)
	reader := pager.NewReader(dataFile, revFile, revCache, handler, xxhash.Sum64)

	trx := txn.NewSimple(1)
	persister := page.NewPersister()

	ctx := context.Background()
	writer, err := pager.NewWriter(ctx, dataFile, revFile, revCache, persister, handler, trx, page.Data, reader, pager.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("new writer: %w", err)
	}
	defer writer.Close(ctx)

	for rev := uint64(0); rev < uint64(revisionCount); rev++ {
		if err := commitRevision(ctx, writer, rev, logger); err != nil {
			return fmt.Errorf("commit revision %d: %w", rev, err)
		}
	}

	stats := writer.Stats()
	logger.Info("commit sequence complete",
		"pages_written", stats.PagesWritten,
		"bytes_written", stats.BytesWritten,
		"revisions_flushed", stats.RevisionsFlushed,
		"current_revision", stats.CurrentRevision,
		"flush_count", stats.FlushCount,
	)

	if revisionCount > 1 {
		target := uint64(revisionCount - 2)
		if _, err := writer.TruncateTo(ctx, target); err != nil {
			return fmt.Errorf("truncate to revision %d: %w", target, err)
		}
		logger.Info("demonstrated truncate to earlier revision", "revision", target)
	}

	return nil
}

// commitRevision writes a key/value page holding a few entries, a fragment,
// a revision root, and the dual uber page for one synthetic revision.
func commitRevision(ctx context.Context, writer *pager.Writer, revision uint64, logger *slog.Logger) error {
	kv := page.NewUnorderedKeyValuePage(revision)
	for i := 0; i < 3; i++ {
		kv.Set([]byte(fmt.Sprintf("key-%d-%d", revision, i)), []byte(fmt.Sprintf("value-%d-%d", revision, i)))
	}
	kvRef := &page.Reference{Page: kv}
	if _, err := writer.Write(ctx, kvRef); err != nil {
		return err
	}

	frag := &page.Fragment{
		PageNumber: revision,
		Leaf:       true,
		Keys:       [][]byte{[]byte(fmt.Sprintf("key-%d-0", revision))},
	}
	fragRef := &page.Reference{Page: frag}
	if _, err := writer.Write(ctx, fragRef); err != nil {
		return err
	}

	root := &page.RevisionRootPage{
		Revision:              revision,
		CommitTimestampMillis: time.Now().UnixMilli(),
		RootOffset:            fragRef.Key,
	}
	rootRef := &page.Reference{Page: root}
	if _, err := writer.Write(ctx, rootRef); err != nil {
		return err
	}

	uber := &page.UberPage{
		RevisionCount:      revision + 1,
		RevisionRootOffset: rootRef.Key,
	}
	uberRef := &page.Reference{Page: uber}
	if _, err := writer.WriteUberPageReference(ctx, uberRef); err != nil {
		return err
	}

	logger.Info("committed revision", "revision", revision, "root_offset", rootRef.Key, "uber_offset", uberRef.Key)
	return nil
}

func buildTransformChain(cfg config.Config) pager.ByteHandler {
	var stages []transform.Transform
	if cfg.Compression {
		stages = append(stages, transform.NewCompression(0))
	}
	if cfg.EncryptionKeyHex != "" {
		key, err := decodeKey(cfg.EncryptionKeyHex)
		if err == nil {
			if enc, err := transform.NewEncryption(key); err == nil {
				stages = append(stages, enc)
			}
		}
	}
	if len(stages) == 0 {
		return transform.NewChain(transform.Noop{})
	}
	return transform.NewChain(stages...)
}

func decodeKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
