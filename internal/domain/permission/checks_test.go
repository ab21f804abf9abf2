package permission

import (
	"testing"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestHasAccess(t *testing.T) {
	assert.False(t, HasAccess(nil))
	assert.False(t, HasAccess(&Scope{}))
	assert.True(t, HasAccess(&Scope{Access: true}))
}

func TestCanCreate(t *testing.T) {
	assert.False(t, CanCreate(nil))
	assert.False(t, CanCreate(&Scope{Access: true}))
	assert.False(t, CanCreate(&Scope{Create: true}))
	assert.True(t, CanCreate(&Scope{Access: true, Create: true}))
}

func TestCanEditRecord(t *testing.T) {
	tests := []struct {
		name           string
		scope          *Scope
		createdBy      string
		requester      string
		sameDepartment bool
		want           bool
	}{
		{
			name: "own scope allows creator",
			scope: &Scope{
				Access: true, Edit: true,
				RecordScope: types.RecordScopeOwn,
			},
			createdBy: "u1", requester: "u1",
			want: true,
		},
		{
			name: "own scope denies others",
			scope: &Scope{
				Access: true, Edit: true,
				RecordScope: types.RecordScopeOwn,
			},
			createdBy: "u1", requester: "u2",
			want: false,
		},
		{
			name: "department scope follows membership",
			scope: &Scope{
				Access: true, Edit: true,
				RecordScope: types.RecordScopeDepartment,
			},
			createdBy: "u1", requester: "u2", sameDepartment: true,
			want: true,
		},
		{
			name: "department scope denies outsiders",
			scope: &Scope{
				Access: true, Edit: true,
				RecordScope: types.RecordScopeDepartment,
			},
			createdBy: "u1", requester: "u2", sameDepartment: false,
			want: false,
		},
		{
			name: "all scope is unrestricted",
			scope: &Scope{
				Access: true, Edit: true,
				RecordScope: types.RecordScopeAll,
			},
			createdBy: "u1", requester: "u2",
			want: true,
		},
		{
			name: "edit grant is a prerequisite",
			scope: &Scope{
				Access:      true,
				RecordScope: types.RecordScopeAll,
			},
			createdBy: "u1", requester: "u1",
			want: false,
		},
		{
			name:      "nil scope denies",
			scope:     nil,
			createdBy: "u1", requester: "u1",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CanEditRecord(tt.scope, tt.createdBy, tt.requester, tt.sameDepartment)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanDeleteRecord(t *testing.T) {
	scope := &Scope{
		Access: true, Delete: true,
		RecordScope: types.RecordScopeOwn,
	}
	assert.True(t, CanDeleteRecord(scope, "u1", "u1", false))
	assert.False(t, CanDeleteRecord(scope, "u1", "u2", false))

	noDelete := &Scope{Access: true, RecordScope: types.RecordScopeAll}
	assert.False(t, CanDeleteRecord(noDelete, "u1", "u2", false))
}

func TestColumnRules(t *testing.T) {
	t.Run("nil columns map is unrestricted for view", func(t *testing.T) {
		scope := &Scope{Access: true, Edit: true}
		assert.True(t, CanViewColumn(scope, "anything"))
		assert.True(t, CanEditColumn(scope, "anything"))
	})

	t.Run("absent key defaults to view-only", func(t *testing.T) {
		scope := &Scope{
			Access: true, Edit: true,
			Columns: ColumnMap{"amount": {View: true, Edit: true}},
		}
		assert.True(t, CanViewColumn(scope, "title"))
		assert.False(t, CanEditColumn(scope, "title"))
	})

	t.Run("explicit rules apply", func(t *testing.T) {
		scope := &Scope{
			Access: true, Edit: true,
			Columns: ColumnMap{
				"amount": {View: false, Edit: false},
				"notes":  {View: true, Edit: true},
			},
		}
		assert.False(t, CanViewColumn(scope, "amount"))
		assert.False(t, CanEditColumn(scope, "amount"))
		assert.True(t, CanViewColumn(scope, "notes"))
		assert.True(t, CanEditColumn(scope, "notes"))
	})

	t.Run("editable but hidden is honoured", func(t *testing.T) {
		scope := &Scope{
			Access: true, Edit: true,
			Columns: ColumnMap{"internal_ref": {View: false, Edit: true}},
		}
		assert.False(t, CanViewColumn(scope, "internal_ref"))
		assert.True(t, CanEditColumn(scope, "internal_ref"))
	})

	t.Run("column edit requires scope edit grant", func(t *testing.T) {
		scope := &Scope{
			Access:  true,
			Columns: ColumnMap{"amount": {View: true, Edit: true}},
		}
		assert.False(t, CanEditColumn(scope, "amount"))
	})
}

func TestAdminScope(t *testing.T) {
	scope := NewAdminScope(types.ModuleExpense, "expense_claim")
	assert.True(t, HasAccess(scope))
	assert.True(t, CanCreate(scope))
	assert.True(t, CanEditRecord(scope, "someone", "admin", false))
	assert.True(t, CanDeleteRecord(scope, "someone", "admin", false))
	assert.True(t, CanViewColumn(scope, "anything"))
	assert.True(t, CanEditColumn(scope, "anything"))
}
