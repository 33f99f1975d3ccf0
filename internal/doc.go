// Package luftguete implements a scheduled ingestion job for the City of
// Vienna air-quality feed.
//
// # Architecture
//
// The service is structured into several key packages:
//   - source: conditional HTTP retrieval of the Lumes feed
//   - lumes: charset decoding, header parsing and the table-to-datapoint
//     transformation
//   - database: Postgres record store, ETag state and the run lease
//   - storage: S3 persistence of the raw file and the derived dataset
//   - pipeline: orchestration of one ingestion cycle
//   - scheduler: cron trigger for periodic runs
//
// Key Behaviors
//
//   - Change detection:
//     Every cycle issues a conditional GET with the last stored ETag.
//     An unchanged file costs one 304 round trip and nothing else.
//
//   - Idempotent storage:
//     Datapoint ids derive from measurement time, station, series name
//     and type, so re-ingesting a file upserts onto the same records.
//
//   - Failure model:
//     No retries inside a run; the next scheduled cycle picks up where
//     the remote file still differs from the stored ETag, because the
//     ETag is only advanced after all writes succeed.
package luftguete
