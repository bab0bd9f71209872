package dnaio

import (
	"encoding/binary"
)

// BAM auxiliary tags are stored as a two-byte name, a one-byte type and the
// value. The jump table gives the value size for fixed-width types; -1 marks
// the variable-width types 'Z', 'H' and 'B'.
var tagJumps = [256]int{
	'A': 1,
	'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4,
	'f': 4,
	'Z': -1,
	'H': -1,
	'B': -1,
}

func errCorruptTags() error {
	return formatErrorf(Truncated, -1, "corrupt BAM auxiliary tag block")
}

// tagEnd returns the offset just past the tag starting at block[i], or an
// error when the block is malformed.
func tagEnd(block []byte, i int) (int, error) {
	if i+3 > len(block) {
		return 0, errCorruptTags()
	}
	typ := block[i+2]
	switch j := tagJumps[typ]; {
	case j > 0:
		if i+3+j > len(block) {
			return 0, errCorruptTags()
		}
		return i + 3 + j, nil
	case j < 0:
		switch typ {
		case 'Z', 'H':
			for k := i + 3; k != len(block); k++ {
				if block[k] == 0 {
					return k + 1, nil
				}
			}
			return 0, errCorruptTags()
		default: // 'B'
			if i+8 > len(block) {
				return 0, errCorruptTags()
			}
			itemSize := tagJumps[block[i+3]]
			if itemSize <= 0 {
				return 0, errCorruptTags()
			}
			count := int(binary.LittleEndian.Uint32(block[i+4:]))
			end := i + 8 + count*itemSize
			if end > len(block) {
				return 0, errCorruptTags()
			}
			return end, nil
		}
	}
	return 0, errCorruptTags()
}

// tagInt decodes the integer value of a fixed-width integer tag.
func tagInt(tag []byte) (int64, bool) {
	v := tag[3:]
	switch tag[2] {
	case 'c':
		return int64(int8(v[0])), true
	case 'C':
		return int64(v[0]), true
	case 's':
		return int64(int16(binary.LittleEndian.Uint16(v))), true
	case 'S':
		return int64(binary.LittleEndian.Uint16(v)), true
	case 'i':
		return int64(int32(binary.LittleEndian.Uint32(v))), true
	case 'I':
		return int64(binary.LittleEndian.Uint32(v)), true
	}
	return 0, false
}

func appendIntTag(dst []byte, name [2]byte, v int64) []byte {
	dst = append(dst, name[0], name[1], 'i')
	return binary.LittleEndian.AppendUint32(dst, uint32(int32(v)))
}

// perBaseTag reports whether the named tag describes per-base or per-signal
// data that becomes invalid when the sequence is reordered or trimmed with a
// stride.
func perBaseTag(n0, n1 byte) bool {
	switch {
	case n0 == 'm' && n1 == 'v':
		return true
	case n0 == 'n' && n1 == 's':
		return true
	case n0 == 't' && n1 == 's':
		return true
	case n0 == 'M' && n1 == 'M':
		return true
	case n0 == 'M' && n1 == 'L':
		return true
	case n0 == 'M' && n1 == 'N':
		return true
	case n0 == 'd' && n1 == 'u':
		return true
	}
	return false
}

// dropPerBaseTags returns a copy of block without the per-base tag set.
// A malformed block is cut short at the first unparseable tag.
func dropPerBaseTags(block []byte) []byte {
	out := make([]byte, 0, len(block))
	for i := 0; i < len(block); {
		end, err := tagEnd(block, i)
		if err != nil {
			break
		}
		if !perBaseTag(block[i], block[i+1]) {
			out = append(out, block[i:end]...)
		}
		i = end
	}
	return out
}

// trimTags rewrites a BAM auxiliary tag block for the base subrange
// [start, stop) of a record with nBases bases. The move table tag mv is cut
// to the moves belonging to the subrange, ts is advanced by the number of
// trimmed leading signal samples and ns is recomputed from the new move
// table; MN and du are dropped. All other tags are copied unchanged. When no
// move table is present the block is returned as-is: there is no per-base
// payload to adjust.
func trimTags(block []byte, start, stop, nBases int) ([]byte, error) {
	// Locate mv, ns and ts first; the rewrite needs all of them at once.
	var mv, ns, ts []byte
	for i := 0; i < len(block); {
		end, err := tagEnd(block, i)
		if err != nil {
			return nil, err
		}
		tag := block[i:end]
		switch {
		case tag[0] == 'm' && tag[1] == 'v' && tag[2] == 'B' && len(tag) >= 9 && tag[3] == 'c':
			mv = tag
		case tag[0] == 'n' && tag[1] == 's':
			ns = tag
		case tag[0] == 't' && tag[1] == 's':
			ts = tag
		}
		i = end
	}
	if mv == nil {
		return block, nil
	}

	moves := mv[8:] // stride byte followed by the 0/1 move table
	if len(moves) < 1 {
		return nil, errCorruptTags()
	}
	stride := int64(int8(moves[0]))
	table := moves[1:]

	// Base i begins at the move-table entry holding its 1. Everything before
	// the start base's entry is trimmed signal; everything from the stop
	// base's entry on is dropped.
	idxStart, idxStop, seen := 0, len(table), 0
	for i, m := range table {
		if m == 0 {
			continue
		}
		if seen == start {
			idxStart = i
		}
		if seen == stop {
			idxStop = i
			break
		}
		seen++
	}
	if seen < stop && stop < nBases {
		return nil, errCorruptTags()
	}
	if start == stop {
		idxStart, idxStop = 0, 0
	}
	newTable := table[idxStart:idxStop]

	var tsVal int64
	if ts != nil {
		v, ok := tagInt(ts)
		if !ok {
			return nil, errCorruptTags()
		}
		tsVal = v
	}
	tsVal += int64(idxStart) * stride
	nsVal := int64(len(newTable)) * stride
	if tsVal > 0 {
		nsVal += tsVal
	}

	out := make([]byte, 0, len(block))
	for i := 0; i < len(block); {
		end, _ := tagEnd(block, i) // validated above
		tag := block[i:end]
		i = end
		switch {
		case tag[0] == 'M' && tag[1] == 'N', tag[0] == 'd' && tag[1] == 'u':
			// Total length and duration no longer describe the subrange.
		case &tag[0] == &mv[0]:
			out = append(out, 'm', 'v', 'B', 'c')
			out = binary.LittleEndian.AppendUint32(out, uint32(len(newTable)+1))
			out = append(out, moves[0])
			out = append(out, newTable...)
		case ns != nil && &tag[0] == &ns[0]:
			out = appendIntTag(out, [2]byte{'n', 's'}, nsVal)
		case ts != nil && &tag[0] == &ts[0]:
			out = appendIntTag(out, [2]byte{'t', 's'}, tsVal)
		default:
			out = append(out, tag...)
		}
	}
	return out, nil
}
