// Package dataprocessing reads the audit inputs into domain values.
//
// # Inputs
//
//   - Main table: an xlsx workbook whose header row names the columns.
//     Headers are mapped to record fields through the configured header
//     map; unmapped headers are kept as extra columns.
//   - Positive filings: a CSV with a name and a process number column,
//     optionally ISO-8859-1 encoded.
//   - Supplier table: xlsx with tax ID, ABC tier letter and a 0/1 flag for
//     third-party (local) suppliers.
//   - Weight table: xlsx whose first column is the document type followed
//     by one weight column per scoring column.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(cfg.Columns, cfg.Source.Encoding, logger)
//	dataset, err := loader.LoadFolders(ctx, inputs)
//
// Every error is an *errors.AppError of type PARSING or STORAGE carrying the
// offending path in its context.
package dataprocessing
