// Package records stores user study content: generated questions, summaries,
// and favorite folders with their saved items. It is deliberately thin
// pass-through CRUD; all ownership scoping comes from the authenticated
// identity, never from the request body.
package records
