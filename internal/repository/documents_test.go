package repository

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/moizuddin-works/Document-OCR/constants"
	"github.com/moizuddin-works/Document-OCR/internal/common"
	"github.com/moizuddin-works/Document-OCR/internal/entity"
)

// DocumentStoreSuite exercises the audit-logged store against a fresh
// on-disk sqlite database per test.
type DocumentStoreSuite struct {
	suite.Suite
	ctx  context.Context
	repo DocumentRepository
}

func TestDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreSuite))
}

func (s *DocumentStoreSuite) SetupTest() {
	s.ctx = context.Background()
	dbPath := filepath.Join(s.T().TempDir(), "documents.db")
	db, err := Open(s.ctx, Config{Path: dbPath}, slog.Default())
	s.Require().NoError(err)
	s.T().Cleanup(func() { Close(db, slog.Default()) })
	s.repo = NewDocumentRepository(db, slog.Default())
}

func (s *DocumentStoreSuite) sampleFields() entity.Fields {
	return entity.Fields{
		DocType:     "ID CARD",
		DocNumber:   "AB123456",
		FullName:    "Jane Doe",
		DateOfBirth: "01-02-1990",
	}
}

func (s *DocumentStoreSuite) TestCreateAndGet() {
	id, err := s.repo.Create(s.ctx, "ID CARD\nNAME JANE DOE", s.sampleFields())
	s.Require().NoError(err)
	s.EqualValues(1, id)

	doc, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("ID CARD\nNAME JANE DOE", doc.RawText)
	s.Equal(s.sampleFields(), doc.Fields)
	s.Equal(constants.StatusPending, doc.VerificationStatus)
	s.True(doc.DateAdded.Equal(doc.LastModified), "date_added must equal last_modified at creation")
}

func (s *DocumentStoreSuite) TestCreateRejectsEmptyText() {
	_, err := s.repo.Create(s.ctx, "   ", s.sampleFields())
	s.Require().ErrorIs(err, common.ErrValidation)

	entries, err := s.repo.AuditLog(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries, "failed mutations must not write audit entries")
}

func (s *DocumentStoreSuite) TestIDAssignmentIsMaxPlusOne() {
	for range 3 {
		_, err := s.repo.Create(s.ctx, "text", entity.Fields{})
		s.Require().NoError(err)
	}
	s.Require().NoError(s.repo.Delete(s.ctx, 3))

	id, err := s.repo.Create(s.ctx, "text", entity.Fields{})
	s.Require().NoError(err)
	s.EqualValues(3, id, "next id is one greater than the current maximum")
}

func (s *DocumentStoreSuite) TestUpdateText() {
	id, err := s.repo.Create(s.ctx, "old text", s.sampleFields())
	s.Require().NoError(err)
	before, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.UpdateText(s.ctx, id, "new text"))

	after, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("new text", after.RawText)
	s.True(after.LastModified.After(before.LastModified), "last_modified must strictly increase")
	s.True(after.DateAdded.Equal(before.DateAdded), "date_added must not change")
	s.Equal(before.Fields, after.Fields, "structured fields are untouched by text edits")
	s.Equal(constants.StatusPending, after.VerificationStatus)
}

func (s *DocumentStoreSuite) TestUpdateTextRejectsEmptyText() {
	id, err := s.repo.Create(s.ctx, "original text", s.sampleFields())
	s.Require().NoError(err)

	s.Require().ErrorIs(s.repo.UpdateText(s.ctx, id, "   "), common.ErrValidation)

	doc, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("original text", doc.RawText, "rejected edits must not mutate the row")
	s.True(doc.LastModified.Equal(doc.DateAdded))

	entries, err := s.repo.AuditLog(s.ctx)
	s.Require().NoError(err)
	s.Len(entries, 1, "only the creation is audited")
}

func (s *DocumentStoreSuite) TestUpdateMissing() {
	err := s.repo.UpdateText(s.ctx, 99, "text")
	s.Require().ErrorIs(err, common.ErrNotFound)

	entries, err := s.repo.AuditLog(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *DocumentStoreSuite) TestDeleteKeepsAuditTrail() {
	id, err := s.repo.Create(s.ctx, "text", s.sampleFields())
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Delete(s.ctx, id))

	_, err = s.repo.Get(s.ctx, id)
	s.Require().ErrorIs(err, common.ErrNotFound)

	entries, err := s.repo.AuditLog(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	// newest first
	s.Equal(constants.ActionDelete, entries[0].Action)
	s.Equal(constants.ActionAdd, entries[1].Action)
	for _, e := range entries {
		s.Equal(id, e.DocumentID, "entries keep referencing the deleted id")
	}
}

func (s *DocumentStoreSuite) TestDeleteMissing() {
	s.Require().ErrorIs(s.repo.Delete(s.ctx, 42), common.ErrNotFound)
}

func (s *DocumentStoreSuite) TestAuditEntriesMatchMutations() {
	id1, err := s.repo.Create(s.ctx, "one", entity.Fields{})
	s.Require().NoError(err)
	id2, err := s.repo.Create(s.ctx, "two", entity.Fields{})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.UpdateText(s.ctx, id1, "one edited"))
	s.Require().NoError(s.repo.Delete(s.ctx, id2))

	// failed calls on top
	_, errCreate := s.repo.Create(s.ctx, "", entity.Fields{})
	s.Require().Error(errCreate)
	s.Require().Error(s.repo.UpdateText(s.ctx, 12345, "x"))

	entries, err := s.repo.AuditLog(s.ctx)
	s.Require().NoError(err)
	s.Len(entries, 4, "exactly one audit entry per successful mutation")
}

func (s *DocumentStoreSuite) TestActorIsRecorded() {
	id, err := s.repo.Create(s.ctx, "text", entity.Fields{}, WithActor("inspector"))
	s.Require().NoError(err)
	s.Require().NoError(s.repo.UpdateText(s.ctx, id, "more text"))

	entries, err := s.repo.AuditLog(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(constants.DefaultActor, entries[0].Actor)
	s.Equal("inspector", entries[1].Actor)
}

func (s *DocumentStoreSuite) TestList() {
	for _, txt := range []string{"first", "second", "third"} {
		_, err := s.repo.Create(s.ctx, txt, entity.Fields{})
		s.Require().NoError(err)
	}
	docs, err := s.repo.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(docs, 3)
	for i, d := range docs {
		s.EqualValues(i+1, d.ID, "list is ordered by ascending id")
	}
}

func (s *DocumentStoreSuite) TestSearch() {
	_, err := s.repo.Create(s.ctx, "t", entity.Fields{DocNumber: "SMITH9-001", FullName: "Alan Turing"})
	s.Require().NoError(err)
	_, err = s.repo.Create(s.ctx, "t", entity.Fields{DocNumber: "XY777777", FullName: "Jane Smith"})
	s.Require().NoError(err)
	_, err = s.repo.Create(s.ctx, "t", entity.Fields{DocNumber: "ZZ000000", FullName: "Nobody Else"})
	s.Require().NoError(err)

	matches, err := s.repo.Search(s.ctx, "Smith")
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal(entity.MatchName, matches[0].MatchedField)
	s.Equal("Jane Smith", matches[0].Document.Fields.FullName)

	matches, err = s.repo.Search(s.ctx, "SMITH")
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal(entity.MatchNumber, matches[0].MatchedField, "case-sensitive match on the number field")

	matches, err = s.repo.Search(s.ctx, "7777")
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal(entity.MatchNumber, matches[0].MatchedField)
}

func (s *DocumentStoreSuite) TestSearchEmptyTermReturnsNothing() {
	_, err := s.repo.Create(s.ctx, "t", s.sampleFields())
	s.Require().NoError(err)

	matches, err := s.repo.Search(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *DocumentStoreSuite) TestSearchOrderedByDateAddedDesc() {
	for i := 0; i < 3; i++ {
		_, err := s.repo.Create(s.ctx, "t", entity.Fields{DocNumber: "COMMON-TOKEN"})
		s.Require().NoError(err)
	}
	matches, err := s.repo.Search(s.ctx, "COMMON")
	s.Require().NoError(err)
	s.Require().Len(matches, 3)
	for i := 1; i < len(matches); i++ {
		s.False(matches[i].Document.DateAdded.After(matches[i-1].Document.DateAdded),
			"results must be ordered newest first")
	}
}

func (s *DocumentStoreSuite) TestSetVerificationStatus() {
	id, err := s.repo.Create(s.ctx, "text", entity.Fields{})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.SetVerificationStatus(s.ctx, id, constants.StatusVerified, WithActor("reviewer")))

	doc, err := s.repo.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(constants.StatusVerified, doc.VerificationStatus)
	s.True(doc.LastModified.After(doc.DateAdded))

	entries, err := s.repo.AuditLog(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(constants.ActionEdit, entries[0].Action)
	s.Equal("reviewer", entries[0].Actor)
}

func (s *DocumentStoreSuite) TestSetVerificationStatusRejectsUnknown() {
	id, err := s.repo.Create(s.ctx, "text", entity.Fields{})
	s.Require().NoError(err)
	s.Require().ErrorIs(s.repo.SetVerificationStatus(s.ctx, id, "MAYBE"), common.ErrValidation)
}

func (s *DocumentStoreSuite) TestGetMissing() {
	_, err := s.repo.Get(s.ctx, 7)
	s.Require().ErrorIs(err, common.ErrNotFound)
}
