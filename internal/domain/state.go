package domain

// Snapshot keys used by the persistence collaborator.
const (
	KeyClients            = "factoring_clients"
	KeyOperations         = "factoring_operations"
	KeyReceipts           = "factoring_receipts"
	KeyUsers              = "factoring_users"
	KeyDismissedReminders = "dismissedReminders"
	KeySequences          = "factoring_sequences"
)

// AllKeys lists every persisted collection.
var AllKeys = []string{
	KeyClients,
	KeyOperations,
	KeyReceipts,
	KeyUsers,
	KeyDismissedReminders,
	KeySequences,
}

// Sequences holds the highest id ever handed out per entity, so ids are
// not reused after the newest record is deleted.
type Sequences struct {
	Clients    int `json:"clients"`
	Operations int `json:"operations"`
	Receipts   int `json:"receipts"`
	Users      int `json:"users"`
}

// State is the full in-memory entity set. Collections are kept
// most-recent-first, which is a presentation convention only.
type State struct {
	Clients            []Client    `json:"clients"`
	Operations         []Operation `json:"operations"`
	Receipts           []Receipt   `json:"receipts"`
	Users              []User      `json:"users"`
	DismissedReminders []int       `json:"dismissedReminders"`
	Sequences          Sequences   `json:"sequences"`
}

// FindClient returns the client with id.
func (s State) FindClient(id int) (Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

// FindOperation returns the operation with id.
func (s State) FindOperation(id int) (Operation, bool) {
	for _, op := range s.Operations {
		if op.ID == id {
			return op, true
		}
	}
	return Operation{}, false
}

// FindReceipt returns the receipt with id.
func (s State) FindReceipt(id int) (Receipt, bool) {
	for _, r := range s.Receipts {
		if r.ID == id {
			return r, true
		}
	}
	return Receipt{}, false
}

// FindUser returns the user with id.
func (s State) FindUser(id int) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// ReceiptsFor returns the receipts registered against an operation.
func (s State) ReceiptsFor(operationID int) []Receipt {
	var out []Receipt
	for _, r := range s.Receipts {
		if r.OperationID == operationID {
			out = append(out, r)
		}
	}
	return out
}
