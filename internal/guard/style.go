package guard

import "strings"

// setStyleProps returns style with each name/value pair in kv set, replacing
// any existing declaration of the same property. Other declarations keep
// their order.
func setStyleProps(style string, kv ...string) string {
	names := make(map[string]bool, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		names[kv[i]] = true
	}

	var decls []string
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		prop, _, _ := strings.Cut(decl, ":")
		if names[strings.ToLower(strings.TrimSpace(prop))] {
			continue
		}
		decls = append(decls, decl)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		decls = append(decls, kv[i]+":"+kv[i+1])
	}
	return strings.Join(decls, ";")
}
