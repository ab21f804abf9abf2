package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/testutil"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type RecordServiceSuite struct {
	testutil.BaseServiceSuite
	params   ServiceParams
	service  RecordService
	conflict ConflictService
	notifier NotifierService
}

func TestRecordService(t *testing.T) {
	suite.Run(t, new(RecordServiceSuite))
}

func (s *RecordServiceSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	stores := s.GetStores()
	s.params = ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		Cache:          s.GetCache(),
		EntityRepo:     stores.EntityRepo,
		RecordRepo:     stores.RecordRepo,
		PermissionRepo: stores.PermissionRepo,
		ActivityRepo:   stores.ActivityRepo,
		Departments:    stores.Departments,
		PubSub:         stores.PubSub,
	}

	policy := NewPolicyService(s.params)
	entities := NewEntityService(s.params)
	activitySvc := NewActivityService(s.params)
	s.notifier = NewNotifierService(s.params)
	s.service = NewRecordService(s.params, policy, entities, activitySvc, s.notifier)
	s.conflict = NewConflictService(s.params, s.service)

	s.seedEntity()
}

func (s *RecordServiceSuite) seedEntity() {
	ctx := s.adminCtx()
	err := NewEntityService(s.params).CreateEntity(ctx, &entity.Entity{
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		DisplayName: "Expense Claim",
		IsEnabled:   true,
	})
	s.Require().NoError(err)

	fields := []*entity.FieldDefinition{
		{Key: "title", Label: "Title", Type: types.FieldTypeText, Required: true, Visible: true},
		{Key: "amount", Label: "Amount", Type: types.FieldTypeNumber, Required: true, Visible: true},
		{Key: "notes", Label: "Notes", Type: types.FieldTypeText, Visible: true},
	}
	for _, f := range fields {
		err := NewEntityService(s.params).CreateField(ctx, types.ModuleExpense, "expense_claim", f)
		s.Require().NoError(err)
	}
}

func (s *RecordServiceSuite) adminCtx() context.Context {
	return s.GetContext("user_admin", types.UserRoleAdmin)
}

func (s *RecordServiceSuite) grantAll(userID string, role types.UserRole, scope types.RecordScope) context.Context {
	err := s.GetStores().PermissionRepo.Create(context.Background(), &permission.Scope{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PERMISSION),
		UserID:      userID,
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		Create:      true,
		Edit:        true,
		Delete:      true,
		RecordScope: scope,
	})
	s.Require().NoError(err)
	return s.GetContext(userID, role)
}

func (s *RecordServiceSuite) createClaim(ctx context.Context, amount float64) *record.Record {
	rec, err := s.service.Create(ctx, &CreateRecordRequest{
		Module:    types.ModuleExpense,
		EntityKey: "expense_claim",
		Data:      map[string]any{"title": "Taxi", "amount": amount},
	})
	s.Require().NoError(err)
	return rec
}

func (s *RecordServiceSuite) TestCreateStartsAtVersionOne() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	rec := s.createClaim(ctx, 100)

	s.Equal(1, rec.Version)
	s.Equal(types.RecordStatusDraft, rec.Status)
	s.Equal("user_1", rec.CreatedBy)
	s.InDelta(100.0, rec.Data["amount"], 0.001)
}

func (s *RecordServiceSuite) TestUpdateIncrementsVersionByOne() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	rec := s.createClaim(ctx, 100)

	updated, err := s.service.Update(ctx, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 150},
		ExpectedVersion: 1,
	})
	s.Require().NoError(err)
	s.Equal(2, updated.Version)
	s.InDelta(150.0, updated.Data["amount"], 0.001)
}

func (s *RecordServiceSuite) TestStaleVersionIsRejectedWithLatestState() {
	// two editors read the same version; the slower write loses
	ctxA := s.grantAll("user_a", types.UserRoleEmployee, types.RecordScopeAll)
	ctxB := s.grantAll("user_b", types.UserRoleEmployee, types.RecordScopeAll)
	rec := s.createClaim(ctxA, 100)

	_, err := s.service.Update(ctxA, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 150},
		ExpectedVersion: 1,
	})
	s.Require().NoError(err)

	_, err = s.service.Update(ctxB, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 200},
		ExpectedVersion: 1,
	})
	s.Require().Error(err)
	s.True(ierr.IsVersionConflict(err))

	// no lost update: the accepted write stands
	current, err := s.service.Get(ctxA, rec.ID)
	s.Require().NoError(err)
	s.Equal(2, current.Version)
	s.InDelta(150.0, current.Data["amount"], 0.001)
}

func (s *RecordServiceSuite) TestConflictHealingClientWins() {
	ctxA := s.grantAll("user_a", types.UserRoleEmployee, types.RecordScopeAll)
	ctxB := s.grantAll("user_b", types.UserRoleEmployee, types.RecordScopeAll)
	rec := s.createClaim(ctxA, 100)

	_, err := s.service.Update(ctxA, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 150},
		ExpectedVersion: 1,
	})
	s.Require().NoError(err)

	_, err = s.service.Update(ctxB, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 200},
		ExpectedVersion: 1,
	})
	s.Require().True(ierr.IsVersionConflict(err))

	healed, err := s.conflict.Resolve(ctxB, &ResolveConflictRequest{
		RecordID:   rec.ID,
		Strategy:   StrategyClientWins,
		ClientData: map[string]any{"amount": 200},
	})
	s.Require().NoError(err)
	s.Equal(3, healed.Version)
	s.InDelta(200.0, healed.Data["amount"], 0.001)
}

func (s *RecordServiceSuite) TestConflictHealingServerWins() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeAll)
	rec := s.createClaim(ctx, 100)

	kept, err := s.conflict.Resolve(ctx, &ResolveConflictRequest{
		RecordID: rec.ID,
		Strategy: StrategyServerWins,
	})
	s.Require().NoError(err)
	s.Equal(rec.Version, kept.Version)
	s.InDelta(100.0, kept.Data["amount"], 0.001)
}

func (s *RecordServiceSuite) TestCreateDeniedWithoutGrant() {
	ctx := s.GetContext("user_nobody", types.UserRoleEmployee)
	_, err := s.service.Create(ctx, &CreateRecordRequest{
		Module:    types.ModuleExpense,
		EntityKey: "expense_claim",
		Data:      map[string]any{"title": "Taxi", "amount": 10},
	})
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *RecordServiceSuite) TestOwnScopeHidesForeignRecords() {
	ctxA := s.grantAll("user_a", types.UserRoleEmployee, types.RecordScopeOwn)
	ctxB := s.grantAll("user_b", types.UserRoleEmployee, types.RecordScopeOwn)
	rec := s.createClaim(ctxA, 100)

	_, err := s.service.Get(ctxB, rec.ID)
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RecordServiceSuite) TestOwnScopeBlocksForeignWrites() {
	ctxA := s.grantAll("user_a", types.UserRoleEmployee, types.RecordScopeOwn)
	ctxB := s.grantAll("user_b", types.UserRoleEmployee, types.RecordScopeOwn)
	rec := s.createClaim(ctxA, 100)

	_, err := s.service.Update(ctxB, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 999},
		ExpectedVersion: 1,
	})
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))

	err = s.service.Delete(ctxB, rec.ID)
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))

	// untouched by either rejected write
	current, err := s.service.Get(ctxA, rec.ID)
	s.Require().NoError(err)
	s.Equal(1, current.Version)
}

func (s *RecordServiceSuite) TestDepartmentScopeFollowsDirectory() {
	stores := s.GetStores()
	stores.Departments.SetDepartment("user_a", "dept_fin")
	stores.Departments.SetDepartment("user_b", "dept_fin")
	stores.Departments.SetDepartment("user_c", "dept_hr")

	ctxA := s.grantAll("user_a", types.UserRoleEmployee, types.RecordScopeDepartment)
	ctxB := s.grantAll("user_b", types.UserRoleEmployee, types.RecordScopeDepartment)
	ctxC := s.grantAll("user_c", types.UserRoleEmployee, types.RecordScopeDepartment)
	rec := s.createClaim(ctxA, 100)

	_, err := s.service.Get(ctxB, rec.ID)
	s.NoError(err)

	_, err = s.service.Get(ctxC, rec.ID)
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RecordServiceSuite) TestColumnRedactionOnRead() {
	err := s.GetStores().PermissionRepo.Create(context.Background(), &permission.Scope{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PERMISSION),
		UserID:      "user_limited",
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		Edit:        true,
		RecordScope: types.RecordScopeAll,
		Columns: permission.ColumnMap{
			"title":  {View: true, Edit: true},
			"amount": {View: false, Edit: false},
		},
	})
	s.Require().NoError(err)

	ctxOwner := s.grantAll("user_owner", types.UserRoleEmployee, types.RecordScopeAll)
	rec := s.createClaim(ctxOwner, 100)

	ctxLimited := s.GetContext("user_limited", types.UserRoleEmployee)
	got, err := s.service.Get(ctxLimited, rec.ID)
	s.Require().NoError(err)
	s.Contains(got.Data, "title")
	s.NotContains(got.Data, "amount")
}

func (s *RecordServiceSuite) TestColumnEditDenied() {
	err := s.GetStores().PermissionRepo.Create(context.Background(), &permission.Scope{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PERMISSION),
		UserID:      "user_limited",
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
		Access:      true,
		Edit:        true,
		RecordScope: types.RecordScopeAll,
		Columns: permission.ColumnMap{
			"title":  {View: true, Edit: true},
			"amount": {View: true, Edit: false},
		},
	})
	s.Require().NoError(err)

	ctxOwner := s.grantAll("user_owner", types.UserRoleEmployee, types.RecordScopeAll)
	rec := s.createClaim(ctxOwner, 100)

	ctxLimited := s.GetContext("user_limited", types.UserRoleEmployee)
	_, err = s.service.Update(ctxLimited, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 500},
		ExpectedVersion: 1,
	})
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *RecordServiceSuite) TestSchemaValidationRejectsBadData() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	_, err := s.service.Create(ctx, &CreateRecordRequest{
		Module:    types.ModuleExpense,
		EntityKey: "expense_claim",
		Data:      map[string]any{"title": "Taxi", "amount": "not a number"},
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RecordServiceSuite) TestTransitions() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	rec := s.createClaim(ctx, 100)

	submitted, err := s.service.Transition(ctx, rec.ID, types.RecordStatusSubmitted, "")
	s.Require().NoError(err)
	s.Equal(types.RecordStatusSubmitted, submitted.Status)

	// an employee cannot approve
	_, err = s.service.Transition(ctx, rec.ID, types.RecordStatusApproved, "")
	s.Require().Error(err)
	s.True(ierr.IsPermissionDenied(err))

	mgrCtx := s.grantAll("user_mgr", types.UserRoleManager, types.RecordScopeAll)
	approved, err := s.service.Transition(mgrCtx, rec.ID, types.RecordStatusApproved, "")
	s.Require().NoError(err)
	s.Equal(types.RecordStatusApproved, approved.Status)

	// approved is terminal
	_, err = s.service.Transition(mgrCtx, rec.ID, types.RecordStatusDraft, "")
	s.Require().Error(err)
	s.True(ierr.IsInvalidTransition(err))
}

func (s *RecordServiceSuite) TestRejectedReturnsToDraft() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	mgrCtx := s.grantAll("user_mgr", types.UserRoleManager, types.RecordScopeAll)
	rec := s.createClaim(ctx, 100)

	_, err := s.service.Transition(ctx, rec.ID, types.RecordStatusSubmitted, "")
	s.Require().NoError(err)
	_, err = s.service.Transition(mgrCtx, rec.ID, types.RecordStatusRejected, "")
	s.Require().NoError(err)

	back, err := s.service.Transition(ctx, rec.ID, types.RecordStatusDraft, "")
	s.Require().NoError(err)
	s.Equal(types.RecordStatusDraft, back.Status)
}

func (s *RecordServiceSuite) TestDecisionCommentLandsInLedger() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	mgrCtx := s.grantAll("user_mgr", types.UserRoleManager, types.RecordScopeAll)
	rec := s.createClaim(ctx, 100)

	_, err := s.service.Transition(ctx, rec.ID, types.RecordStatusSubmitted, "")
	s.Require().NoError(err)
	_, err = s.service.Transition(mgrCtx, rec.ID, types.RecordStatusRejected, "missing receipt")
	s.Require().NoError(err)

	entries, err := s.GetStores().ActivityRepo.List(context.Background(), &types.ActivityFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		RecordID:    lo.ToPtr(rec.ID),
		Action:      lo.ToPtr(types.ActionReject),
	})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Require().Len(entries[0].Changes, 1)
	s.Equal("comment", entries[0].Changes[0].Field)
	s.Equal("missing receipt", entries[0].Changes[0].NewValue)
}

func (s *RecordServiceSuite) TestHidingFieldDoesNotBlockUpdates() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	rec, err := s.service.Create(ctx, &CreateRecordRequest{
		Module:    types.ModuleExpense,
		EntityKey: "expense_claim",
		Data:      map[string]any{"title": "Taxi", "amount": 100, "notes": "keep me"},
	})
	s.Require().NoError(err)

	err = NewEntityService(s.params).UpdateField(s.adminCtx(), types.ModuleExpense, "expense_claim", &entity.FieldDefinition{
		Key:   "notes",
		Label: "Notes",
		Type:  types.FieldTypeText,
	})
	s.Require().NoError(err)

	// untouched fields do not fail validation after being hidden
	updated, err := s.service.Update(ctx, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 150},
		ExpectedVersion: 1,
	})
	s.Require().NoError(err)
	s.Equal(2, updated.Version)

	// the stored value of the hidden field survives the write
	stored, err := s.GetStores().RecordRepo.Get(context.Background(), rec.ID)
	s.Require().NoError(err)
	s.Equal("keep me", stored.Data["notes"])

	// writing the hidden field directly is still rejected
	_, err = s.service.Update(ctx, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"notes": "overwrite"},
		ExpectedVersion: 2,
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RecordServiceSuite) TestSoftDeleteAndRestore() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	rec := s.createClaim(ctx, 100)

	s.Require().NoError(s.service.Delete(ctx, rec.ID))

	_, err := s.service.Get(ctx, rec.ID)
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))

	restored, err := s.service.Restore(ctx, rec.ID)
	s.Require().NoError(err)
	s.False(restored.IsDeleted)

	// each lifecycle step bumped the version
	s.Equal(3, restored.Version)
}

func (s *RecordServiceSuite) TestListRespectsOwnScope() {
	ctxA := s.grantAll("user_a", types.UserRoleEmployee, types.RecordScopeOwn)
	ctxB := s.grantAll("user_b", types.UserRoleEmployee, types.RecordScopeOwn)
	s.createClaim(ctxA, 10)
	s.createClaim(ctxA, 20)
	s.createClaim(ctxB, 30)

	response, err := s.service.List(ctxA, &types.RecordFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
	})
	s.Require().NoError(err)
	s.Len(response.Items, 2)
	s.Equal(2, response.Pagination.Total)
	for _, rec := range response.Items {
		s.Equal("user_a", rec.CreatedBy)
	}
}

func (s *RecordServiceSuite) TestDepartmentListTotalSpansPages() {
	stores := s.GetStores()
	stores.Departments.SetDepartment("user_a", "dept_fin")
	stores.Departments.SetDepartment("user_b", "dept_fin")
	stores.Departments.SetDepartment("user_c", "dept_hr")

	ctxA := s.grantAll("user_a", types.UserRoleEmployee, types.RecordScopeDepartment)
	ctxB := s.grantAll("user_b", types.UserRoleEmployee, types.RecordScopeDepartment)
	ctxC := s.grantAll("user_c", types.UserRoleEmployee, types.RecordScopeDepartment)
	s.createClaim(ctxA, 10)
	s.createClaim(ctxA, 20)
	s.createClaim(ctxB, 30)
	s.createClaim(ctxC, 40)

	// the total counts every department-visible record, not just the page
	response, err := s.service.List(ctxA, &types.RecordFilter{
		QueryFilter: &types.QueryFilter{Limit: lo.ToPtr(2)},
		Module:      types.ModuleExpense,
		EntityKey:   "expense_claim",
	})
	s.Require().NoError(err)
	s.Len(response.Items, 2)
	s.Equal(3, response.Pagination.Total)
	s.True(response.Pagination.HasMore)
	for _, rec := range response.Items {
		s.NotEqual("user_c", rec.CreatedBy)
	}
}

func (s *RecordServiceSuite) TestMutationsAppendToLedgerAndFanOut() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	rec := s.createClaim(ctx, 100)

	_, err := s.service.Update(ctx, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 150},
		ExpectedVersion: 1,
	})
	s.Require().NoError(err)

	entries, err := s.GetStores().ActivityRepo.List(context.Background(), &types.ActivityFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		RecordID:    lo.ToPtr(rec.ID),
	})
	s.Require().NoError(err)
	s.Len(entries, 2)

	topic := s.notifier.Topic(types.ModuleExpense, "expense_claim")
	s.Len(s.GetStores().PubSub.GetMessages(topic), 2)
}

func (s *RecordServiceSuite) TestChangeEventsCarryRecordSnapshot() {
	ctx := s.grantAll("user_1", types.UserRoleEmployee, types.RecordScopeOwn)
	rec := s.createClaim(ctx, 100)

	_, err := s.service.Update(ctx, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"amount": 150},
		ExpectedVersion: 1,
	})
	s.Require().NoError(err)

	topic := s.notifier.Topic(types.ModuleExpense, "expense_claim")
	msgs := s.GetStores().PubSub.GetMessages(topic)
	s.Require().Len(msgs, 2)

	var created ChangeEvent
	s.Require().NoError(json.Unmarshal(msgs[0].Payload, &created))
	s.Equal(EventRecordCreated, created.Type)
	s.Equal(rec.ID, created.RecordID)
	s.InDelta(100.0, created.Data["amount"], 0.001)
	s.Equal("Taxi", created.Data["title"])

	var updated ChangeEvent
	s.Require().NoError(json.Unmarshal(msgs[1].Payload, &updated))
	s.Equal(EventRecordUpdated, updated.Type)
	s.Equal(2, updated.Version)
	s.InDelta(150.0, updated.Data["amount"], 0.001)
}
