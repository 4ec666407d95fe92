/*
Package ingestion turns uploaded documents into searchable vectors.

A Pipeline loads a document from disk, splits it into sentence chunks,
embeds each chunk and writes the vectors into the conversation's
collection. Jobs arrive either directly through Submit, which runs them
on a bounded worker pool, or through a queue server via RegisterHandlers.

Processing is at-least-once: chunk point IDs are derived from the chunk
content, so a redelivered job overwrites its earlier points instead of
duplicating them.
*/
package ingestion
