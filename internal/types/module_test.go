package types

import (
	"testing"

	ierr "github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestModuleValidate(t *testing.T) {
	assert.NoError(t, ModuleRE.Validate())
	assert.NoError(t, ModuleExpense.Validate())
	assert.True(t, ierr.IsValidation(Module("payroll").Validate()))
}
