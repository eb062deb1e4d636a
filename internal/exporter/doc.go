// Package exporter writes audit results to disk.
//
// XLSXExporter produces one workbook per report, named
//
//	<Report> Folder [ <folder> ] - YYYYMMDD-HHMMSS.xlsx
//
// in the reports directory. Finding reports go to a sheet named "Erros" and
// are skipped when there is nothing to report; URLs become hyperlinks. The
// map and sheet reports color every cell with its mask code and the
// supplier score report colors each row by risk band.
//
// CSVWriter writes the same finding tables as UTF-8 CSV with a BOM so Excel
// detects the encoding.
package exporter
