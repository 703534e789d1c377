// Package checkpoint spools finished record sets to disk until they are
// delivered.
//
// A harvest's records are written here before any export runs. When every
// sink succeeds the spool is deleted; otherwise it stays behind and
// `otwscraper export` can deliver it again.
//
// Spools are stored in platform-specific data directories:
//   - Linux: $XDG_DATA_HOME/otwscraper/checkpoints/ or ~/.local/share/otwscraper/checkpoints/
//   - macOS: ~/Library/Application Support/otwscraper/checkpoints/
//   - Windows: %APPDATA%/otwscraper/checkpoints/
//
// Files are written atomically and carry a version number.
package checkpoint
