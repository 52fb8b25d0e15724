// Package catalog owns the menu and the order ledger.
//
// Readers get the last published menu snapshot through an atomic pointer
// and never block. Writers are serialized per document: one mutex guards
// the menu read-modify-write, another guards ledger appends. A snapshot is
// published only after the backend write has succeeded, so readers never
// observe a menu that was not persisted.
package catalog
