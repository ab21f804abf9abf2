package service

import (
	"testing"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/entity"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/domain/record"
	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/testutil"
	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/stretchr/testify/suite"
)

type EntityServiceSuite struct {
	testutil.BaseServiceSuite
	service EntityService
}

func TestEntityService(t *testing.T) {
	suite.Run(t, new(EntityServiceSuite))
}

func (s *EntityServiceSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewEntityService(ServiceParams{
		Logger:     s.GetLogger(),
		Config:     s.GetConfig(),
		Cache:      s.GetCache(),
		EntityRepo: stores.EntityRepo,
		RecordRepo: stores.RecordRepo,
	})
}

func (s *EntityServiceSuite) seed() *entity.Entity {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	e := &entity.Entity{
		Module:      types.ModuleRE,
		EntityKey:   "listing",
		DisplayName: "Listing",
		IsEnabled:   true,
	}
	s.Require().NoError(s.service.CreateEntity(ctx, e))
	return e
}

func (s *EntityServiceSuite) TestCreateAndGet() {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	created := s.seed()
	s.NotEmpty(created.ID)
	s.Equal("user_admin", created.CreatedBy)

	got, err := s.service.GetEntity(ctx, types.ModuleRE, "listing")
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal("Listing", got.DisplayName)
}

func (s *EntityServiceSuite) TestCreateRejectsUnknownModule() {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	err := s.service.CreateEntity(ctx, &entity.Entity{
		Module:      types.Module("warehouse"),
		EntityKey:   "pallet",
		DisplayName: "Pallet",
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *EntityServiceSuite) TestDuplicateKeyRejected() {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	s.seed()
	err := s.service.CreateEntity(ctx, &entity.Entity{
		Module:      types.ModuleRE,
		EntityKey:   "listing",
		DisplayName: "Listing Again",
	})
	s.Require().Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *EntityServiceSuite) TestUpdateEntity() {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	e := s.seed()

	e.DisplayName = "Property Listing"
	e.ApprovalRequired = true
	s.Require().NoError(s.service.UpdateEntity(ctx, e))

	got, err := s.service.GetEntity(ctx, types.ModuleRE, "listing")
	s.Require().NoError(err)
	s.Equal("Property Listing", got.DisplayName)
	s.True(got.ApprovalRequired)
}

func (s *EntityServiceSuite) TestDeleteBlockedWhileRecordsExist() {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	e := s.seed()

	rec := &record.Record{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RECORD),
		Module:    types.ModuleRE,
		EntityKey: "listing",
		Data:      map[string]any{"price": 100},
		Version:   1,
		Status:    types.RecordStatusDraft,
		CreatedBy: "user_1",
		UpdatedBy: "user_1",
	}
	s.Require().NoError(s.GetStores().RecordRepo.Create(ctx, rec))

	err := s.service.DeleteEntity(ctx, types.ModuleRE, "listing")
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// still there
	_, err = s.service.GetEntity(ctx, types.ModuleRE, "listing")
	s.NoError(err)
	s.NotEmpty(e.ID)
}

func (s *EntityServiceSuite) TestDeleteEmptyEntity() {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	s.seed()

	s.Require().NoError(s.service.DeleteEntity(ctx, types.ModuleRE, "listing"))

	_, err := s.service.GetEntity(ctx, types.ModuleRE, "listing")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *EntityServiceSuite) TestFieldLifecycle() {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	s.seed()

	field := &entity.FieldDefinition{
		Key: "price", Label: "Price", Type: types.FieldTypeNumber, Required: true, Visible: true,
	}
	s.Require().NoError(s.service.CreateField(ctx, types.ModuleRE, "listing", field))
	s.NotEmpty(field.ID)

	fields, err := s.service.ListFields(ctx, types.ModuleRE, "listing")
	s.Require().NoError(err)
	s.Require().Len(fields, 1)

	field.Label = "Asking Price"
	s.Require().NoError(s.service.UpdateField(ctx, types.ModuleRE, "listing", field))

	fields, err = s.service.ListFields(ctx, types.ModuleRE, "listing")
	s.Require().NoError(err)
	s.Equal("Asking Price", fields[0].Label)

	s.Require().NoError(s.service.DeleteField(ctx, types.ModuleRE, "listing", "price"))
	fields, err = s.service.ListFields(ctx, types.ModuleRE, "listing")
	s.Require().NoError(err)
	s.Empty(fields)
}

func (s *EntityServiceSuite) TestSystemFieldProtection() {
	ctx := s.GetContext("user_admin", types.UserRoleAdmin)
	s.seed()

	field := &entity.FieldDefinition{
		Key: "reference", Label: "Reference", Type: types.FieldTypeText, Visible: true, IsSystem: true,
	}
	s.Require().NoError(s.service.CreateField(ctx, types.ModuleRE, "listing", field))

	// retype and hide are rejected
	retyped := *field
	retyped.Type = types.FieldTypeNumber
	err := s.service.UpdateField(ctx, types.ModuleRE, "listing", &retyped)
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))

	hidden := *field
	hidden.Visible = false
	err = s.service.UpdateField(ctx, types.ModuleRE, "listing", &hidden)
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))

	err = s.service.DeleteField(ctx, types.ModuleRE, "listing", "reference")
	s.Require().Error(err)

	// relabeling stays allowed
	relabeled := *field
	relabeled.Label = "Ref"
	s.NoError(s.service.UpdateField(ctx, types.ModuleRE, "listing", &relabeled))
}
