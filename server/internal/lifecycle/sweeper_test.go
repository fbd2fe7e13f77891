package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func (s *ManagerSuite) TestSweeperTickCountsFailures() {
	m := s.newManager("10.0.0.0/24", 2)
	sw := NewSweeper(m, time.Minute, 2)

	s.plane.EXPECT().Activate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	g, err := m.Create(s.ctx)
	s.Require().NoError(err)
	key := g.Peer.PublicKey

	s.clock.Add(testTTL)

	gomock.InOrder(
		s.plane.EXPECT().Deactivate(gomock.Any(), key).Return(errors.New("wg failed")),
		s.plane.EXPECT().Deactivate(gomock.Any(), key).Return(errors.New("wg failed")),
		s.plane.EXPECT().Deactivate(gomock.Any(), key).Return(nil),
	)

	res := sw.Tick(s.ctx)
	s.Len(res.Failed, 1)
	s.Equal(1, sw.FailureCount(key))

	res = sw.Tick(s.ctx)
	s.Len(res.Failed, 1)
	s.Equal(2, sw.FailureCount(key))

	res = sw.Tick(s.ctx)
	s.Len(res.Evicted, 1)
	s.Equal(0, sw.FailureCount(key))
	s.Equal(0, m.Status().ActivePeers)
}

func (s *ManagerSuite) TestSweeperForgetsPeersRemovedElsewhere() {
	m := s.newManager("10.0.0.0/24", 2)
	sw := NewSweeper(m, time.Minute, 0)

	s.plane.EXPECT().Activate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	g, err := m.Create(s.ctx)
	s.Require().NoError(err)
	s.clock.Add(testTTL)

	s.plane.EXPECT().Deactivate(gomock.Any(), g.Peer.PublicKey).Return(errors.New("wg failed"))
	sw.Tick(s.ctx)
	s.Equal(1, sw.FailureCount(g.Peer.PublicKey))

	s.plane.EXPECT().Deactivate(gomock.Any(), g.Peer.PublicKey).Return(nil)
	_, err = m.Evict(s.ctx, g.Peer.PublicKey)
	s.Require().NoError(err)

	res := sw.Tick(s.ctx)
	s.Empty(res.Evicted)
	s.Equal(0, sw.FailureCount(g.Peer.PublicKey))
}

func (s *ManagerSuite) TestSweeperRunEvictsOnTicks() {
	s.allowAll()
	m := s.newManager("10.0.0.0/24", 3)
	sw := NewSweeper(m, time.Minute, 3)

	for i := 0; i < 3; i++ {
		_, err := m.Create(s.ctx)
		s.Require().NoError(err)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() {
		done <- sw.Run(ctx)
	}()

	require.Eventually(s.T(), func() bool {
		s.clock.Add(time.Minute)
		return m.Status().ActivePeers == 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("sweeper did not stop after cancel")
	}
}

func (s *ManagerSuite) TestNewSweeperDefaultsInterval() {
	m := s.newManager("10.0.0.0/24", 1)
	sw := NewSweeper(m, 0, 0)
	s.Equal(DefaultSweepInterval, sw.interval)
}
