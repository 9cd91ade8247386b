package denylist

// slon104Base hosts the common-PIN rankings derived from haveibeenpwned data.
const slon104Base = "https://github.com/Slon104/Common-PIN-Analysis-from-haveibeenpwned.com/raw/refs/heads/main/Word%20Lists/"

// DefaultSources maps sequence lengths to published ranked lists.
// No 3-digit list is published; length 3 points at the 5-digit list as the
// reference deployment does, so it never rejects a 3-symbol candidate.
var DefaultSources = map[int]string{
	3: slon104Base + "5%20PIN%20by%20Slon104.txt",
	4: slon104Base + "4%20PIN%20by%20Slon104.txt",
	5: slon104Base + "5%20PIN%20by%20Slon104.txt",
	6: slon104Base + "6%20PIN%20by%20Slon104.txt",
}

// SourceFor returns the list URL for length, preferring overrides.
func SourceFor(length int, overrides map[int]string) (string, bool) {
	if url, ok := overrides[length]; ok && url != "" {
		return url, true
	}
	url, ok := DefaultSources[length]
	return url, ok
}
