// Package database provides SQLite-based storage for linkcrawl run history.
//
// HistoryDB archives the report of every finished crawl so the history
// command can list and show past runs. It is never read back into a crawl:
// each run starts from its seed source with an empty frontier.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, so the
// database is a single file and the binary cross-compiles without a C
// toolchain.
package database
