package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldExpenseID  = "expense_id"
	FieldRecipient  = "recipient"
	FieldCollection = "collection"
	FieldLabel      = "label"
	FieldAmount     = "amount"
	FieldCurrency   = "currency"
	FieldRef        = "ref"
	FieldBudgetID   = "budget_id"
	FieldPath       = "path"
	FieldCount      = "count"
	FieldComplete   = "complete"
	FieldIncomplete = "incomplete"
	FieldExcluded   = "excluded"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentParse      = "parse"
	ComponentDictionary = "dictionary"
	ComponentExclusion  = "exclusion"
	ComponentStats      = "stats"
	ComponentBudget     = "budget"
	ComponentStorage    = "storage"
	ComponentImport     = "import"
	ComponentExpense    = "expense"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpRestore  = "restore"
	OpImport   = "import"
	OpParse    = "parse"
	OpRollover = "rollover"
	OpExclude  = "exclude"
	OpLearn    = "learn"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
