package rbac

// Permissions
const (
	PermBankView     = "bank:view"
	PermBankCreate   = "bank:create"
	PermBankDelete   = "bank:delete"
	PermBankExport   = "bank:export"
	PermBankImport   = "bank:import"
	PermPracticeRun  = "practice:run"
	PermPracticeTest = "practice:test"
	PermEventsView   = "events:view"
)

var RolePermissions = map[string][]string{
	"learner": {
		PermBankView,
		"practice:*",
	},
	"author": {
		"bank:*",
		"practice:*",
	},
	"admin": {
		"*", // everything
	},
}
