package dnaio

// headersAreMates implements the pair-suffix-tolerant id comparison: the ids
// of the two headers must be byte-identical, except that a trailing '1', '2'
// or '3' (as in "read/1", "read/2") is ignored when both ids carry one.
func headersAreMates[T Text](h1, h2 T) bool {
	idLen := len(h1)
	for i := 0; i != len(h1); i++ {
		if c := h1[i]; c == ' ' || c == '\t' {
			idLen = i
			break
		}
	}
	if len(h2) < idLen {
		return false
	}
	if len(h2) > idLen {
		// h2's id must end exactly where h1's does.
		if c := h2[idLen]; c != ' ' && c != '\t' {
			return false
		}
	}
	cmp := idLen
	if idLen > 0 && isPairDigit(h1[idLen-1]) && isPairDigit(h2[idLen-1]) {
		cmp = idLen - 1
	}
	return string(h1[:cmp]) == string(h2[:cmp])
}

func isPairDigit(c byte) bool {
	return c == '1' || c == '2' || c == '3'
}

// RecordsAreMates reports whether all records belong to the same read pair,
// i.e. IsMate holds between the first record and each of the others. It
// panics when called with fewer than two records.
func RecordsAreMates[T Text](records ...*Record[T]) bool {
	if len(records) < 2 {
		panic("dnaio: RecordsAreMates requires at least two records")
	}
	for _, r := range records[1:] {
		if !headersAreMates(records[0].name, r.name) {
			return false
		}
	}
	return true
}
