package engine

// extractFirstJSON finds the first balanced top-level JSON object in a string.
// Model replies often wrap JSON in prose or code fences; this strips both. If
// no balanced object is found the input is returned unchanged.
func extractFirstJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i, ch := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return s
}
