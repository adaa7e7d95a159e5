// Package core runs catalog uploads on behalf of the web server and the CLI.
//
// It owns the batch lifecycle around the engine in package catalog: reading
// the upload under a size limit, limiting how many batches reconcile at once,
// broadcasting progress, keeping results for a while after a batch ends and
// mapping technical errors to messages a spreadsheet owner can act on.
//
// # Uploads
//
// [Service.StartUpload] reads the file, then reconciles it in the background
// and returns an upload id immediately. Progress moves through the phases
//
//	starting -> reading -> reconciling -> complete | failed | cancelled
//
// and is broadcast to every channel returned by [Service.SubscribeProgress].
// [Service.GetUploadResult] blocks until the batch ends. Finished uploads are
// forgotten after the configured retention (five minutes by default).
//
// [Service.IngestNow] is the synchronous variant used by the CLI and the
// /api/ingest endpoint. [Service.Preview] runs the same reconciliation
// against an in-memory overlay and writes nothing.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a code prefix for support reference:
//
//   - FILE001-FILE006: file errors (size, format, encoding, header)
//   - UPL001-UPL005: upload errors (cancelled, busy, not found, timeout)
//   - DB001-DB008: store errors (constraints, connections, locks)
//   - CAT001-CAT003: catalog errors (unknown field, category, match key)
package core
