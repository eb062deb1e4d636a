// Package audit validates certidão tables.
//
// It finds duplicate submissions, unreadable dates and expired documents,
// and reconciles tax IDs with names. Every check works on an in-memory
// table and returns findings; Reconcile also returns a corrected copy of the
// table, which is the one report aggregation should use.
//
//	auditor := audit.NewAuditor(audit.DefaultOptions(), logger)
//	res, err := auditor.Run(ctx, records, filings)
//
// Checks never perform I/O and never panic on malformed data.
package audit
