// Package dnaio provides the record model for high-throughput sequencing
// data: an immutable sequence record with a name, a nucleotide sequence and
// optional Phred+33 qualities, together with FASTQ serialization and
// mate-pair identity checks.
//
// Records come in two flavors selected by a type parameter: Record[string]
// stores its fields as strings, Record[[]byte] as byte slices. Both obey
// identical semantics.
//
// The streaming parsers live in the fastq and bam subpackages; the chunks
// subpackage splits streams at record boundaries without parsing them.
package dnaio
