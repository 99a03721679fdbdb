package models

import "encoding/json"

// Collection names used in the document store.
const (
	CollectionStudents = "students"
	CollectionStaff    = "staff"
	CollectionInvoices = "invoices"
	CollectionExpenses = "expenses"
)

// Collections lists every collection the application subscribes to.
var Collections = []string{CollectionStudents, CollectionStaff, CollectionInvoices, CollectionExpenses}

// Document is one record as delivered by the document store.
type Document struct {
	ID   string          `db:"id" json:"id"`
	Data json.RawMessage `db:"data" json:"data"`
}

// Fields is a full or partial record sent to the document store. A nil value
// clears the field.
type Fields map[string]interface{}

// Without returns a copy of f lacking the given keys.
func (f Fields) Without(keys ...string) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
