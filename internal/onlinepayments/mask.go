package onlinepayments

// Masks use "{{" and "}}" to delimit input positions; every character
// inside the braces consumes one input character, every character outside
// is a literal inserted into the output. "{{9999}} {{9999}}" formats
// "12345678" as "1234 5678".

type maskToken struct {
	literal bool
	char    rune
}

func parseMask(mask string) []maskToken {
	runes := []rune(mask)
	tokens := make([]maskToken, 0, len(runes))
	open := false
	for i := 0; i < len(runes); i++ {
		if i+1 < len(runes) && runes[i] == '{' && runes[i+1] == '{' {
			open = true
			i++
			continue
		}
		if i+1 < len(runes) && runes[i] == '}' && runes[i+1] == '}' {
			open = false
			i++
			continue
		}
		tokens = append(tokens, maskToken{literal: !open, char: runes[i]})
	}
	return tokens
}

// ApplyMask formats value with mask. Literals already present in value at
// their masked position are kept rather than duplicated, so applying a mask
// to an already masked value is a no-op. Output stops when value runs out.
func ApplyMask(value, mask string) string {
	if mask == "" {
		return value
	}

	in := []rune(value)
	out := make([]rune, 0, len(in)+len(mask))
	vi := 0
	for _, tok := range parseMask(mask) {
		if vi >= len(in) {
			break
		}
		if tok.literal {
			out = append(out, tok.char)
			if in[vi] == tok.char {
				vi++
			}
			continue
		}
		out = append(out, in[vi])
		vi++
	}
	return string(out)
}

// RemoveMask strips mask literals from value. Characters beyond the mask's
// input capacity are dropped.
func RemoveMask(value, mask string) string {
	if mask == "" {
		return value
	}

	in := []rune(value)
	out := make([]rune, 0, len(in))
	vi := 0
	for _, tok := range parseMask(mask) {
		if vi >= len(in) {
			break
		}
		if tok.literal {
			if in[vi] == tok.char {
				vi++
			}
			continue
		}
		out = append(out, in[vi])
		vi++
	}
	return string(out)
}
