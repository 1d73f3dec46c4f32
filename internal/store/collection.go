package store

// Collection names a record collection. Names double as backup document keys.
type Collection string

const (
	Accounts       Collection = "accounts"
	JournalEntries Collection = "journalEntries"
	Suppliers      Collection = "suppliers"
	Invoices       Collection = "invoices"
	Centers        Collection = "centers"
	Users          Collection = "users"
	Roles          Collection = "roles"
)

// Collections lists every collection in backup order.
var Collections = []Collection{Accounts, JournalEntries, Suppliers, Invoices, Centers, Users, Roles}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// table returns the quoted table name. Callers check Valid first.
func (c Collection) table() string {
	return `"` + string(c) + `"`
}
