// Package document extracts page-level text from uploaded documents and
// splits it into bounded chunks for embedding.
//
// PDFs are parsed page by page; plain-text and markdown files are treated as
// a sequence of form-feed separated pages. Unsupported or corrupt input
// fails with core.ErrLoad and the ingestion pipeline drops the job.
package document
