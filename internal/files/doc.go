// Package files locates the per-folder inputs of an audit and wraps the
// file operations the downloader and exporters need.
//
// Discovery resolves folder numbers to their main table (caso-<folder>.xlsx)
// and positive filings (positivos-caso-<folder>.csv). Manager writes files
// relative to the configured download and report directories.
//
//	discovery := files.NewDiscovery(paths.DownloadsDir)
//	inputs, err := discovery.FindFolders([]string{"12", "13"})
package files
