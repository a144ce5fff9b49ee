// Package core is the materials import/export pipeline.
//
// It holds all domain logic independent of transport or storage, so the
// HTTP server, the CLI and the tests drive the same code.
//
// # Import
//
// A file is parsed into rows by package tabular, then each row goes
// through the same steps whether the batch runs inline or on a worker:
//
//  1. [Validate] checks the row against the import [FieldSpec]
//  2. [EntityResolver] turns category and supplier names into IDs,
//     creating entities that do not exist yet
//  3. [BuildMaterial] assembles the record
//  4. the [Store] persists it
//
// A row that fails any step is rejected and the batch continues.
// [Importer.Run] returns an [ImportSummary] with rejections ordered by row.
//
// [ModeSelector] decides by payload size whether [Service.Import] runs the
// batch in the request (immediate) or hands it to the [JobRunner]
// (deferred). Both paths record a [JobStatus] that ends in exactly one
// terminal state.
//
// # Export
//
// [Project] maps materials onto an export [FieldSpec]. Headers are derived
// from field identifiers and missing relations render as a placeholder.
//
// # Error Handling
//
// Only a [*PipelineFatalError] escapes an import; row failures are data.
// [MapError] turns errors into user-facing messages with support codes.
package core
