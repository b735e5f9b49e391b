package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moizuddin-works/Document-OCR/internal/common"
	"github.com/moizuddin-works/Document-OCR/internal/imaging"
	"github.com/moizuddin-works/Document-OCR/internal/repository"
)

// stubEngine returns canned text instead of running tesseract, so the
// chain around the OCR boundary can be exercised hermetically.
type stubEngine struct {
	text string
	err  error
	seen [][]byte
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(_ context.Context, img []byte) (string, error) {
	s.seen = append(s.seen, img)
	return s.text, s.err
}

func makeTestPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 160))
	for i := range img.Pix {
		img.Pix[i] = 225
	}
	// dark patch standing in for printed text
	for y := 70; y < 90; y++ {
		for x := 90; x < 110; x++ {
			img.SetGray(x, y, color.Gray{Y: 20})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestRepo(t *testing.T) repository.DocumentRepository {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Path: filepath.Join(t.TempDir(), "ingest.db")}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, slog.Default()) })
	return repository.NewDocumentRepository(db, slog.Default())
}

func TestIngestPersistsExtractedDocument(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	engine := &stubEngine{text: "ID CARD\nNAME JANE DOE\nNO AB123456"}
	orch := NewOrchestrator(engine, repo, imaging.DefaultConfig(), slog.Default())

	res, err := orch.Ingest(ctx, makeTestPNG(t))
	require.NoError(t, err)
	require.NotNil(t, res.Document)

	assert.Equal(t, "ID CARD", res.Document.Fields.DocType)
	assert.Equal(t, "AB123456", res.Document.Fields.DocNumber)
	assert.Equal(t, "Jane Doe", res.Document.Fields.FullName)
	assert.Equal(t, "ID CARD\nNAME JANE DOE\nNO AB123456", res.Document.RawText)
	assert.NotEqual(t, [16]byte{}, [16]byte(res.JobID))
	assert.Greater(t, res.Confidence, float32(0))

	// the engine must have been handed the normalized image, not the input
	require.Len(t, engine.seen, 1)
	assert.NotEqual(t, makeTestPNG(t), engine.seen[0])

	stored, err := repo.Get(ctx, res.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Document.RawText, stored.RawText)
}

func TestIngestPersistsDocumentWithoutRecognizableFields(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	engine := &stubEngine{text: "plain scanned text\nmore plain words here"}
	orch := NewOrchestrator(engine, repo, imaging.DefaultConfig(), slog.Default())

	res, err := orch.Ingest(ctx, makeTestPNG(t))
	require.NoError(t, err)
	require.NotNil(t, res.Document)
	assert.True(t, res.Document.Fields.Empty(), "unlabeled text yields an all-empty record")
	assert.Equal(t, "plain scanned text\nmore plain words here", res.Document.RawText)
}

func TestIngestNoTextDetected(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	// cleanup drops short and non-alphanumeric lines, leaving nothing
	engine := &stubEngine{text: "~~\n..\n|"}
	orch := NewOrchestrator(engine, repo, imaging.DefaultConfig(), slog.Default())

	_, err := orch.Ingest(ctx, makeTestPNG(t))
	require.ErrorIs(t, err, common.ErrNoTextDetected)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs, "no document may be persisted for empty OCR output")
}

func TestIngestOCRFailureAbortsBeforeStore(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	engine := &stubEngine{err: errors.New("tesseract unavailable")}
	orch := NewOrchestrator(engine, repo, imaging.DefaultConfig(), slog.Default())

	_, err := orch.Ingest(ctx, makeTestPNG(t))
	require.ErrorIs(t, err, common.ErrOCR)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	entries, err := repo.AuditLog(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestRejectsUndecodableImage(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	engine := &stubEngine{text: "never reached"}
	orch := NewOrchestrator(engine, repo, imaging.DefaultConfig(), slog.Default())

	_, err := orch.Ingest(ctx, []byte("definitely not an image"))
	require.ErrorIs(t, err, common.ErrImageLoad)
	assert.Empty(t, engine.seen, "OCR must not run when decoding fails")
}

func TestIngestFileMissingPath(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	orch := NewOrchestrator(&stubEngine{}, repo, imaging.DefaultConfig(), slog.Default())

	_, err := orch.IngestFile(ctx, filepath.Join(t.TempDir(), "nope.png"))
	require.ErrorIs(t, err, common.ErrImageLoad)
}

func TestIngestFileRejectsUnsupportedExtension(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	orch := NewOrchestrator(&stubEngine{}, repo, imaging.DefaultConfig(), slog.Default())

	path := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(path, makeTestPNG(t), 0o600))

	_, err := orch.IngestFile(ctx, path)
	require.ErrorIs(t, err, common.ErrImageLoad)
	require.ErrorContains(t, err, "unsupported file extension")
}

func TestIngestRecordsActor(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	engine := &stubEngine{text: "PASSPORT\nNAME ALAN TURING\nNO P1234567"}
	orch := NewOrchestrator(engine, repo, imaging.DefaultConfig(), slog.Default())

	_, err := orch.Ingest(ctx, makeTestPNG(t), repository.WithActor("scanner-desk-2"))
	require.NoError(t, err)

	entries, err := repo.AuditLog(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scanner-desk-2", entries[0].Actor)
}
