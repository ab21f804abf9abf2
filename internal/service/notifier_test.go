package service

import (
	"context"
	"testing"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/testutil"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/stretchr/testify/suite"
)

type NotifierServiceSuite struct {
	testutil.BaseServiceSuite
	service NotifierService
}

func TestNotifierService(t *testing.T) {
	suite.Run(t, new(NotifierServiceSuite))
}

func (s *NotifierServiceSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	s.service = NewNotifierService(ServiceParams{
		Logger: s.GetLogger(),
		Config: s.GetConfig(),
		PubSub: s.GetStores().PubSub,
	})
}

func (s *NotifierServiceSuite) receive(ch <-chan *ChangeEvent) *ChangeEvent {
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for change event")
		return nil
	}
}

func (s *NotifierServiceSuite) TestTopicShape() {
	s.Equal("records.expense.expense_claim", s.service.Topic(types.ModuleExpense, "expense_claim"))
	s.Equal("records.re.listing", s.service.Topic(types.ModuleRE, "listing"))
}

func (s *NotifierServiceSuite) TestPublishReachesSubscriber() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.service.Subscribe(ctx, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)

	s.service.PublishChange(ctx, &ChangeEvent{
		Type:      EventRecordUpdated,
		Module:    types.ModuleExpense,
		EntityKey: "expense_claim",
		RecordID:  "rec_1",
		Version:   2,
		ActorID:   "user_1",
	})

	event := s.receive(events)
	s.Equal(EventRecordUpdated, event.Type)
	s.Equal("rec_1", event.RecordID)
	s.Equal(2, event.Version)
	s.NotEmpty(event.ID)
	s.False(event.Timestamp.IsZero())
}

func (s *NotifierServiceSuite) TestRoomsAreIsolated() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	claims, err := s.service.Subscribe(ctx, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)
	listings, err := s.service.Subscribe(ctx, types.ModuleRE, "listing")
	s.Require().NoError(err)

	s.service.PublishChange(ctx, &ChangeEvent{
		Type:      EventRecordCreated,
		Module:    types.ModuleRE,
		EntityKey: "listing",
		RecordID:  "rec_listing",
		Version:   1,
	})

	event := s.receive(listings)
	s.Equal("rec_listing", event.RecordID)

	select {
	case leaked := <-claims:
		s.Failf("event leaked across rooms", "got %+v", leaked)
	case <-time.After(100 * time.Millisecond):
	}
}

func (s *NotifierServiceSuite) TestFanOutToAllRoomMembers() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := s.service.Subscribe(ctx, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)
	second, err := s.service.Subscribe(ctx, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)

	s.service.PublishChange(ctx, &ChangeEvent{
		Type:      EventRecordDeleted,
		Module:    types.ModuleExpense,
		EntityKey: "expense_claim",
		RecordID:  "rec_1",
	})

	s.Equal("rec_1", s.receive(first).RecordID)
	s.Equal("rec_1", s.receive(second).RecordID)
}

func (s *NotifierServiceSuite) TestSubscribeRejectsUnknownModule() {
	_, err := s.service.Subscribe(context.Background(), types.Module("warehouse"), "pallet")
	s.Error(err)
}

func (s *NotifierServiceSuite) TestChannelClosesOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	events, err := s.service.Subscribe(ctx, types.ModuleExpense, "expense_claim")
	s.Require().NoError(err)

	cancel()

	select {
	case _, open := <-events:
		s.False(open)
	case <-time.After(2 * time.Second):
		s.FailNow("channel did not close after cancel")
	}
}
