package types

import "fmt"

// ActionType is the kind of mutation recorded in the activity ledger
type ActionType string

const (
	ActionCreate  ActionType = "CREATE"
	ActionUpdate  ActionType = "UPDATE"
	ActionDelete  ActionType = "DELETE"
	ActionRestore ActionType = "RESTORE"
	ActionSubmit  ActionType = "SUBMIT"
	ActionApprove ActionType = "APPROVE"
	ActionReject  ActionType = "REJECT"
)

func (a ActionType) Validate() error {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionRestore, ActionSubmit, ActionApprove, ActionReject:
		return nil
	default:
		return fmt.Errorf("invalid action type: %s", a)
	}
}
