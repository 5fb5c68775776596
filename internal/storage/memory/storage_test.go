package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playermanager/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) TestSaveAndLoad() {
	err := s.storage.Save(s.ctx, "whitelist.json", []byte(`{"whitelist":["Alice"]}`))
	s.Require().NoError(err)

	data, err := s.storage.Load(s.ctx, "whitelist.json")
	s.Require().NoError(err)
	s.Equal(`{"whitelist":["Alice"]}`, string(data))
}

func (s *StorageSuite) TestLoadMissingDocument() {
	_, err := s.storage.Load(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *StorageSuite) TestLoadReturnsCopy() {
	_ = s.storage.Save(s.ctx, "doc", []byte("abc"))

	data, _ := s.storage.Load(s.ctx, "doc")
	data[0] = 'x'

	again, _ := s.storage.Load(s.ctx, "doc")
	s.Equal("abc", string(again))
}

func (s *StorageSuite) TestSaveErrKeepsPreviousDocument() {
	_ = s.storage.Save(s.ctx, "doc", []byte("old"))
	s.storage.SetSaveErr(errors.New("disk full"))

	err := s.storage.Save(s.ctx, "doc", []byte("new"))
	s.Error(err)

	data, _ := s.storage.Load(s.ctx, "doc")
	s.Equal("old", string(data))
}
