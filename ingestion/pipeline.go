package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
	"github.com/poiesic/docchat/document"
	"github.com/poiesic/docchat/queue"
	"github.com/poiesic/docchat/store"
	"github.com/poiesic/docchat/vectorindex"
)

const defaultPoolSize = 100

// Pipeline drives the asynchronous ingestion of uploaded documents:
// load, chunk, embed, index. Jobs run in parallel up to the pool size;
// within a job every external call is strictly sequential, and the job is
// all-or-nothing: any failure drops it with no partial index write.
type Pipeline struct {
	loader     document.Loader
	chunker    *document.SentenceChunker
	embedder   ai.Embedder
	index      vectorindex.Index
	files      store.FileStore
	pool       *ants.Pool
	jobTimeout time.Duration
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent jobs.
// Default is 100.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunking sets the sentences-per-chunk and overlap for the splitter.
func WithChunking(sentencesPerChunk, overlapSentences int) Option {
	return func(p *Pipeline) error {
		p.chunker = document.NewSentenceChunker(sentencesPerChunk, overlapSentences)
		return nil
	}
}

// WithJobTimeout bounds the wall-clock time of one job, covering the load,
// embed and index calls together. Zero means no pipeline-imposed timeout;
// the external clients' own timeouts still apply.
func WithJobTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		p.jobTimeout = timeout
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	loader document.Loader,
	embedder ai.Embedder,
	index vectorindex.Index,
	files store.FileStore,
	opts ...Option,
) (*Pipeline, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if files == nil {
		return nil, ErrFileStoreRequired
	}

	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		loader:   loader,
		chunker:  document.NewSentenceChunker(5, 1),
		embedder: embedder,
		index:    index,
		files:    files,
		pool:     pool,
		logger:   slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Consume processes one ingestion job synchronously. All-or-nothing: an
// embedding or index failure aborts the whole job before anything is
// written, so redelivery can never leave a half-indexed document. Because
// chunk IDs are content-derived, redelivery of a completed job overwrites
// the same points rather than duplicating them.
func (p *Pipeline) Consume(ctx context.Context, job *core.IngestionJob) error {
	if err := core.ValidateJob(job); err != nil {
		return err
	}

	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	logger := p.logger.With("conversation", job.ConversationId, "file", job.Filename)

	pages, err := p.loader.Load(ctx, job.Path)
	if err != nil {
		return err
	}
	logger.Debug("document loaded", "pages", len(pages))

	// Every chunk is tagged with the job's conversation id before anything
	// else happens; the tag is the isolation boundary for retrieval.
	chunks := p.chunker.Chunk(job.ConversationId, job.Filename, pages)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks extracted from %s", core.ErrLoad, job.Filename)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: embedding result mismatch, expected %d, received %d",
			core.ErrEmbedding, len(chunks), len(vectors))
	}

	model := p.embedder.Model()
	for i := range chunks {
		chunks[i].Vector = vectors[i]
		chunks[i].EmbeddingModel = model
		chunks[i].Id = core.PointID(job.ConversationId + ":" + job.Filename + ":" +
			strconv.Itoa(chunks[i].Position) + ":" + chunks[i].Text)
	}

	collection := vectorindex.CollectionName(job.ConversationId)
	if err := p.index.EnsureCollection(ctx, collection, len(vectors[0])); err != nil {
		return err
	}
	if err := p.index.Upsert(ctx, collection, chunks); err != nil {
		return err
	}

	recorded, err := p.hasFileRecord(ctx, job)
	if err != nil {
		return err
	}
	if !recorded {
		if _, err := p.files.AddFile(ctx, &core.File{
			ConversationId: job.ConversationId,
			Filename:       job.Filename,
		}); err != nil {
			return err
		}
	}

	logger.Info("document ingested", "chunks", len(chunks))
	return nil
}

// hasFileRecord reports whether the job's filename is already recorded for
// its conversation, which happens when a completed job is redelivered.
func (p *Pipeline) hasFileRecord(ctx context.Context, job *core.IngestionJob) (bool, error) {
	files, err := p.files.ListFiles(ctx, job.ConversationId)
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if f.Filename == job.Filename {
			return true, nil
		}
	}
	return false, nil
}

// Submit schedules a job on the worker pool and returns once a slot is
// taken. Failures are logged and the job is dropped; ingestion is
// asynchronous and never reports back to the uploader.
func (p *Pipeline) Submit(job *core.IngestionJob) error {
	return p.pool.Submit(func() {
		if err := p.Consume(context.Background(), job); err != nil {
			p.logger.Error("ingestion job dropped",
				"conversation", job.ConversationId,
				"file", job.Filename,
				"err", err)
		}
	})
}

// RegisterHandlers binds the pipeline to the queue server. Each job runs
// on the worker pool, so the pool size bounds ingestion concurrency no
// matter how many handler goroutines the queue server itself runs. The
// handler always acks: a failed job is terminal, never redelivered by us.
func (p *Pipeline) RegisterHandlers(srv queue.Server) {
	srv.Register(queue.TaskTypeIngestDocument, func(ctx context.Context, task queue.Task) error {
		job, err := queue.DecodeIngestionJob(task)
		if err != nil {
			p.logger.Error("malformed ingestion task dropped", "err", err)
			return nil
		}

		done := make(chan error, 1)
		if err := p.pool.Submit(func() {
			done <- p.Consume(ctx, job)
		}); err != nil {
			p.logger.Error("ingestion job dropped",
				"conversation", job.ConversationId,
				"file", job.Filename,
				"err", err)
			return nil
		}
		if err := <-done; err != nil {
			p.logger.Error("ingestion job dropped",
				"conversation", job.ConversationId,
				"file", job.Filename,
				"err", err)
		}
		return nil
	})
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
