package logx

import "strings"

// Redacted replaces the value of any field whose key is in the redact list.
const Redacted = "[REDACTED]"

type redactor map[string]struct{}

func newRedactor(keys []string) redactor {
	r := make(redactor, len(keys))
	for _, k := range keys {
		r[strings.ToLower(k)] = struct{}{}
	}
	return r
}

func (r redactor) match(key string) bool {
	_, ok := r[strings.ToLower(key)]
	return ok
}

// apply returns a copy of fields with sensitive values masked. Nested
// Fields and map[string]interface{} values are walked as well.
func (r redactor) apply(fields Fields) Fields {
	if len(fields) == 0 || len(r) == 0 {
		return fields
	}
	out := make(Fields, len(fields))
	for k, v := range fields {
		if r.match(k) {
			out[k] = Redacted
			continue
		}
		switch nested := v.(type) {
		case Fields:
			out[k] = r.apply(nested)
		case map[string]interface{}:
			out[k] = map[string]interface{}(r.apply(Fields(nested)))
		default:
			out[k] = v
		}
	}
	return out
}
