package dnaio

// AppendFastq appends the FASTQ serialization of the record to dst and
// returns the extended slice:
//
//	'@' name '\n' sequence '\n' '+' [name] '\n' qualities '\n'
//
// The name is repeated on the third line when twoHeaders is set. It fails
// with a QualitiesRequired FormatError when the record has no qualities.
func (r *Record[T]) AppendFastq(dst []byte, twoHeaders bool) ([]byte, error) {
	if !r.hasQuals {
		return nil, formatErrorf(QualitiesRequired, -1,
			"record %q has no qualities and cannot be written as FASTQ", Shorten(string(r.name), 60))
	}
	n := 1 + len(r.name) + 1 + len(r.sequence) + 1 + 1 + 1 + len(r.qualities) + 1
	if twoHeaders {
		n += len(r.name)
	}
	if cap(dst)-len(dst) < n {
		grown := make([]byte, len(dst), len(dst)+n)
		copy(grown, dst)
		dst = grown
	}
	dst = append(dst, '@')
	dst = appendText(dst, r.name)
	dst = append(dst, '\n')
	dst = appendText(dst, r.sequence)
	dst = append(dst, '\n', '+')
	if twoHeaders {
		dst = appendText(dst, r.name)
	}
	dst = append(dst, '\n')
	dst = appendText(dst, r.qualities)
	dst = append(dst, '\n')
	return dst, nil
}

// FastqBytes returns the FASTQ serialization of the record as a fresh,
// exactly-sized byte slice. See AppendFastq for the layout.
func (r *Record[T]) FastqBytes(twoHeaders bool) ([]byte, error) {
	return r.AppendFastq(nil, twoHeaders)
}
