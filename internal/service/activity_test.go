package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/activity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/testutil"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type ActivityServiceSuite struct {
	testutil.BaseServiceSuite
	service ActivityService
}

func TestActivityService(t *testing.T) {
	suite.Run(t, new(ActivityServiceSuite))
}

func (s *ActivityServiceSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewActivityService(ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		Cache:        s.GetCache(),
		ActivityRepo: stores.ActivityRepo,
	})
}

func (s *ActivityServiceSuite) entry(userID, recordID string, action types.ActionType) *activity.Entry {
	return &activity.Entry{
		UserID:    userID,
		Module:    types.ModuleExpense,
		EntityKey: "expense_claim",
		RecordID:  recordID,
		Action:    action,
	}
}

func (s *ActivityServiceSuite) listAll() []*activity.Entry {
	entries, err := s.GetStores().ActivityRepo.List(context.Background(), &types.ActivityFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
	})
	s.Require().NoError(err)
	return entries
}

func (s *ActivityServiceSuite) TestRecordFillsDefaults() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	s.service.Record(ctx, s.entry("user_1", "rec_1", types.ActionCreate))

	entries := s.listAll()
	s.Require().Len(entries, 1)
	s.NotEmpty(entries[0].ID)
	s.NotEmpty(entries[0].OperationKey)
	s.False(entries[0].Timestamp.IsZero())
}

func (s *ActivityServiceSuite) TestRecordDropsInvalidEntries() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	s.service.Record(ctx, &activity.Entry{
		Module:    types.ModuleExpense,
		EntityKey: "expense_claim",
		Action:    types.ActionCreate,
	})
	s.Empty(s.listAll())
}

func (s *ActivityServiceSuite) TestOperationKeyDeduplicates() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	for i := 0; i < 3; i++ {
		e := s.entry("user_1", "rec_1", types.ActionUpdate)
		e.OperationKey = "UPDATE:rec_1:2"
		s.service.Record(ctx, e)
	}
	s.Len(s.listAll(), 1)
}

func (s *ActivityServiceSuite) TestDistinctOperationsAllRecorded() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	for version := 2; version <= 4; version++ {
		e := s.entry("user_1", "rec_1", types.ActionUpdate)
		e.OperationKey = operationKey(types.ActionUpdate, "rec_1", version)
		s.service.Record(ctx, e)
	}
	s.Len(s.listAll(), 3)
}

func (s *ActivityServiceSuite) TestListFilters() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	s.service.Record(ctx, s.entry("user_1", "rec_1", types.ActionCreate))
	s.service.Record(ctx, s.entry("user_1", "rec_1", types.ActionUpdate))
	s.service.Record(ctx, s.entry("user_2", "rec_2", types.ActionCreate))

	response, err := s.service.List(ctx, &types.ActivityFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		UserID:      lo.ToPtr("user_1"),
	})
	s.Require().NoError(err)
	s.Len(response.Items, 2)
	s.Equal(2, response.Pagination.Total)

	response, err = s.service.List(ctx, &types.ActivityFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		Action:      lo.ToPtr(types.ActionCreate),
	})
	s.Require().NoError(err)
	s.Len(response.Items, 2)
}

func (s *ActivityServiceSuite) TestUserSummaryRequiresUser() {
	_, err := s.service.UserSummary(context.Background(), "", time.Now().Add(-time.Hour), time.Now())
	s.Error(err)
}

func (s *ActivityServiceSuite) TestExportCSV() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	s.service.Record(ctx, s.entry("user_1", "rec_1", types.ActionCreate))
	s.service.Record(ctx, s.entry("user_1", "rec_1", types.ActionSubmit))

	var buf bytes.Buffer
	err := s.service.ExportCSV(ctx, &types.ActivityFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
	}, &buf)
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	s.Require().Len(lines, 3)
	s.Contains(lines[0], "record_id")
	s.Contains(buf.String(), "rec_1")
}

func (s *ActivityServiceSuite) TestSweepHonoursRetention() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	old := s.entry("user_1", "rec_old", types.ActionCreate)
	old.Timestamp = time.Now().UTC().AddDate(0, 0, -(s.GetConfig().Activity.RetentionDays + 1))
	s.service.Record(ctx, old)
	s.service.Record(ctx, s.entry("user_1", "rec_new", types.ActionCreate))

	deleted, err := s.service.Sweep(ctx)
	s.Require().NoError(err)
	s.Equal(1, deleted)

	entries := s.listAll()
	s.Require().Len(entries, 1)
	s.Equal("rec_new", entries[0].RecordID)
}
