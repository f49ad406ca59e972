// Package journal records committed batches as a CBOR stream.
//
// The journal is an audit trail for debugging: it says which batch touched
// which ranges, and whether it was applied, undone or redone. It is not a
// persistence format for documents; entries do not carry node content.
//
// Entries use integer map keys and canonical encoding, so two runs producing
// the same edits produce byte-identical journals apart from IDs and times.
package journal
