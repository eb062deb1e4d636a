// Package report aggregates audited certidões per entity.
//
// BuildSheet keeps the most severe outcome per entity and document type,
// BuildMap counts certidões per outcome, and ScoreSuppliers turns a sheet
// into a supplier risk score using the special score weight table. Both
// matrices carry mask codes the exporter turns into cell colors.
package report
