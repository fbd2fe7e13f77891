package store

import (
	"context"
	"encoding/json"
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/caldog20/tempnet/pkg/keys"
	"github.com/caldog20/tempnet/server/internal/peer"
)

type StoreSuite struct {
	suite.Suite
	open  func(t *testing.T) Store
	store Store
	ctx   context.Context
	now   time.Time
}

func TestBoltStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) Store {
		s, err := NewBoltStore(filepath.Join(t.TempDir(), "history.db"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}})
}

func TestSqlStore(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) Store {
		s, err := NewSqlStore(filepath.Join(t.TempDir(), "history.sqlite"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}})
}

func TestSqlStoreInMemory(t *testing.T) {
	suite.Run(t, &StoreSuite{open: func(t *testing.T) Store {
		s, err := NewSqlStore(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		return s
	}})
}

func TestNewSqlStoreRequiresPath(t *testing.T) {
	_, err := NewSqlStore("")
	if err == nil {
		t.Fatal("expected error for empty path")
	}
}

func (s *StoreSuite) SetupTest() {
	s.store = s.open(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *StoreSuite) newPeer(addr string) peer.Peer {
	return peer.New(keys.NewPrivateKey().PublicKey(), netip.MustParseAddr(addr), s.now, 15*time.Minute)
}

func (s *StoreSuite) TestEmptyList() {
	recs, err := s.store.ListRecords(s.ctx, 10)
	s.Require().NoError(err)
	s.NotNil(recs)
	s.Empty(recs)
}

func (s *StoreSuite) TestRecordCreatedNewestFirst() {
	a := s.newPeer("10.0.0.2")
	b := s.newPeer("10.0.0.3")
	s.Require().NoError(s.store.RecordCreated(s.ctx, a))
	s.Require().NoError(s.store.RecordCreated(s.ctx, b))

	recs, err := s.store.ListRecords(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal(b.PublicKey.EncodeToString(), recs[0].PublicKey)
	s.Equal("10.0.0.3", recs[0].Address)
	s.Equal(a.PublicKey.EncodeToString(), recs[1].PublicKey)
	s.True(a.CreatedAt.Equal(recs[1].CreatedAt))
	s.True(a.ExpiresAt.Equal(recs[1].ExpiresAt))
	s.Empty(recs[1].EvictCause)
	s.Nil(recs[1].EvictedAt)
}

func (s *StoreSuite) TestListLimit() {
	for _, addr := range []string{"10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		s.Require().NoError(s.store.RecordCreated(s.ctx, s.newPeer(addr)))
	}
	recs, err := s.store.ListRecords(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal("10.0.0.4", recs[0].Address)
	s.Equal("10.0.0.3", recs[1].Address)
}

func (s *StoreSuite) TestRecordEvicted() {
	p := s.newPeer("10.0.0.2")
	s.Require().NoError(s.store.RecordCreated(s.ctx, p))

	at := s.now.Add(15 * time.Minute)
	s.Require().NoError(s.store.RecordEvicted(s.ctx, p.PublicKey, at, "expired"))

	recs, err := s.store.ListRecords(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	s.Equal("expired", recs[0].EvictCause)
	s.Require().NotNil(recs[0].EvictedAt)
	s.True(at.Equal(*recs[0].EvictedAt))

	// already closed
	s.ErrorIs(s.store.RecordEvicted(s.ctx, p.PublicKey, at, "revoked"), ErrNotFound)
}

func (s *StoreSuite) TestOpenRecordOmitsEvictedAt() {
	p := s.newPeer("10.0.0.2")
	s.Require().NoError(s.store.RecordCreated(s.ctx, p))

	recs, err := s.store.ListRecords(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recs, 1)
	raw, err := json.Marshal(recs[0])
	s.Require().NoError(err)
	s.NotContains(string(raw), "evicted_at")

	s.Require().NoError(s.store.RecordEvicted(s.ctx, p.PublicKey, s.now, "revoked"))
	recs, err = s.store.ListRecords(s.ctx, 10)
	s.Require().NoError(err)
	raw, err = json.Marshal(recs[0])
	s.Require().NoError(err)
	s.Contains(string(raw), "evicted_at")
}

func (s *StoreSuite) TestRecordEvictedUnknownKey() {
	err := s.store.RecordEvicted(s.ctx, keys.NewPrivateKey().PublicKey(), s.now, "revoked")
	s.ErrorIs(err, ErrNotFound)
}
