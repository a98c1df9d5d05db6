package respond

import (
	"strconv"
	"strings"
)

type mediaRange struct {
	typ     string
	subtype string
	q       float64
}

// parseAccept splits an Accept header into media ranges. A missing subtype is
// read as "*"; an invalid or out-of-range q is read as 1.
func parseAccept(header string) []mediaRange {
	var ranges []mediaRange
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		params := strings.Split(part, ";")
		mr := mediaRange{q: 1}
		mediaType := strings.ToLower(strings.TrimSpace(params[0]))
		if typ, sub, ok := strings.Cut(mediaType, "/"); ok {
			mr.typ, mr.subtype = typ, sub
		} else {
			mr.typ, mr.subtype = mediaType, "*"
		}
		for _, p := range params[1:] {
			key, val, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || strings.ToLower(strings.TrimSpace(key)) != "q" {
				continue
			}
			q, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil || q < 0 || q > 1 {
				q = 1
			}
			mr.q = q
		}
		ranges = append(ranges, mr)
	}
	return ranges
}

// match reports how specifically r matches typ/subtype: 3 exact, 2 structured
// suffix wildcard (application/*+cbor), 1 type wildcard, 0 full wildcard, -1 none.
func (r mediaRange) match(typ, subtype string) int {
	switch {
	case r.typ == "*" && r.subtype == "*":
		return 0
	case r.typ != typ:
		return -1
	case r.subtype == subtype:
		return 3
	case strings.HasPrefix(r.subtype, "*+"):
		if strings.HasSuffix(subtype, r.subtype[1:]) {
			return 2
		}
		return -1
	case r.subtype == "*":
		return 1
	default:
		return -1
	}
}

// quality returns the q value of the most specific range matching any of the
// given types, along with that specificity. q is -1 when nothing matches.
func quality(ranges []mediaRange, types ...string) (q float64, specificity int) {
	q, specificity = -1, -1
	for _, t := range types {
		typ, sub, _ := strings.Cut(t, "/")
		for _, r := range ranges {
			s := r.match(typ, sub)
			if s < 0 {
				continue
			}
			if s > specificity || (s == specificity && r.q > q) {
				q, specificity = r.q, s
			}
		}
	}
	return q, specificity
}

// selectFormat reports whether CBOR should be used for a problem body.
// JSON is the default and wins ties.
func selectFormat(accept string) bool {
	ranges := parseAccept(accept)
	if len(ranges) == 0 {
		return false
	}
	cborQ, cborSpec := quality(ranges, "application/cbor", "application/problem+cbor")
	jsonQ, jsonSpec := quality(ranges, "application/json", "application/problem+json")
	if cborQ <= 0 {
		return false
	}
	return cborQ > jsonQ || (cborQ == jsonQ && cborSpec > jsonSpec)
}
