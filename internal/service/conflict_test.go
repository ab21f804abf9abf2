package service

import (
	"testing"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/permission"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/testutil"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

func TestComputeDiff(t *testing.T) {
	tests := []struct {
		name   string
		before map[string]any
		after  map[string]any
		want   int
	}{
		{
			name:   "no changes",
			before: map[string]any{"a": 1, "b": "x"},
			after:  map[string]any{"a": 1, "b": "x"},
			want:   0,
		},
		{
			name:   "changed value",
			before: map[string]any{"amount": 100},
			after:  map[string]any{"amount": 150},
			want:   1,
		},
		{
			name:   "added field",
			before: map[string]any{"a": 1},
			after:  map[string]any{"a": 1, "b": 2},
			want:   1,
		},
		{
			name:   "removed field",
			before: map[string]any{"a": 1, "b": 2},
			after:  map[string]any{"a": 1},
			want:   1,
		},
		{
			name: "numeric types compare by value",
			// json decoding turns numbers into float64
			before: map[string]any{"amount": float64(100)},
			after:  map[string]any{"amount": int(100)},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDiff(tt.before, tt.after)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestConflictStrategyValidate(t *testing.T) {
	assert.NoError(t, StrategyClientWins.Validate())
	assert.NoError(t, StrategyServerWins.Validate())
	assert.NoError(t, StrategyManualMerge.Validate())
	assert.Error(t, ConflictStrategy("coin_flip").Validate())
}

type ConflictServiceSuite struct {
	testutil.BaseServiceSuite
	params   ServiceParams
	records  RecordService
	conflict ConflictService
}

func TestConflictService(t *testing.T) {
	suite.Run(t, new(ConflictServiceSuite))
}

func (s *ConflictServiceSuite) SetupTest() {
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
	s.records = NewRecordService(s.params, policy, entities, NewActivityService(s.params), NewNotifierService(s.params))
	s.conflict = NewConflictService(s.params, s.records)

	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	s.Require().NoError(entities.CreateEntity(ctx, &entity.Entity{
		Module:      types.ModuleRE,
		EntityKey:   "listing",
		DisplayName: "Listing",
		IsEnabled:   true,
	}))
	s.Require().NoError(entities.CreateField(ctx, types.ModuleRE, "listing", &entity.FieldDefinition{
		Key: "price", Label: "Price", Type: types.FieldTypeNumber, Visible: true,
	}))
	s.Require().NoError(entities.CreateField(ctx, types.ModuleRE, "listing", &entity.FieldDefinition{
		Key: "address", Label: "Address", Type: types.FieldTypeText, Visible: true,
	}))

	s.Require().NoError(stores.PermissionRepo.Create(ctx, &permission.Scope{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PERMISSION),
		Role:        types.UserRoleEmployee,
		Module:      types.ModuleRE,
		EntityKey:   "listing",
		Access:      true,
		Create:      true,
		Edit:        true,
		RecordScope: types.RecordScopeAll,
	}))
}

func (s *ConflictServiceSuite) TestManualMergeWritesAgainstLatest() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	rec, err := s.records.Create(ctx, &CreateRecordRequest{
		Module:    types.ModuleRE,
		EntityKey: "listing",
		Data:      map[string]any{"price": 500000, "address": "12 Main St"},
	})
	s.Require().NoError(err)

	// concurrent edit moves the record to v2
	_, err = s.records.Update(ctx, &UpdateRecordRequest{
		ID:              rec.ID,
		Data:            map[string]any{"price": 510000},
		ExpectedVersion: 1,
	})
	s.Require().NoError(err)

	merged, err := s.conflict.Resolve(ctx, &ResolveConflictRequest{
		RecordID:   rec.ID,
		Strategy:   StrategyManualMerge,
		MergedData: map[string]any{"price": 510000, "address": "12 Main Street"},
	})
	s.Require().NoError(err)
	s.Equal(3, merged.Version)
	s.Equal("12 Main Street", merged.Data["address"])
	s.InDelta(510000.0, merged.Data["price"], 0.001)
}

func (s *ConflictServiceSuite) TestManualMergeRequiresPayload() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	rec, err := s.records.Create(ctx, &CreateRecordRequest{
		Module:    types.ModuleRE,
		EntityKey: "listing",
		Data:      map[string]any{"price": 100},
	})
	s.Require().NoError(err)

	_, err = s.conflict.Resolve(ctx, &ResolveConflictRequest{
		RecordID: rec.ID,
		Strategy: StrategyManualMerge,
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ConflictServiceSuite) TestClientWinsPreservesUntouchedFields() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	rec, err := s.records.Create(ctx, &CreateRecordRequest{
		Module:    types.ModuleRE,
		EntityKey: "listing",
		Data:      map[string]any{"price": 500000, "address": "12 Main St"},
	})
	s.Require().NoError(err)

	healed, err := s.conflict.Resolve(ctx, &ResolveConflictRequest{
		RecordID:   rec.ID,
		Strategy:   StrategyClientWins,
		ClientData: map[string]any{"price": 475000},
	})
	s.Require().NoError(err)
	s.InDelta(475000.0, healed.Data["price"], 0.001)
	s.Equal("12 Main St", healed.Data["address"])
}

func (s *ConflictServiceSuite) TestUnknownRecord() {
	ctx := s.GetContext("user_1", types.UserRoleEmployee)
	_, err := s.conflict.Resolve(ctx, &ResolveConflictRequest{
		RecordID: "rec_missing",
		Strategy: StrategyServerWins,
	})
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}
