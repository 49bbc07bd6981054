package semantic

import (
	"encoding/base64"
	"encoding/json"

	"github.com/ymir-lang/ymir/internal/ast"
)

// OptionHash is the deterministic fingerprint spec.md §4.4 defines: JSON of
// the option mapping with keys recursively sorted and whitespace stripped,
// then base64. encoding/json already sorts map[string]interface{} keys and
// emits no extra whitespace, so canonicalizing into plain Go values and
// marshaling satisfies both requirements in one step.
func OptionHash(m *ast.OrderedMap) string {
	data, err := json.Marshal(canonicalizeMap(m))
	if err != nil {
		data = []byte("{}")
	}
	return base64.StdEncoding.EncodeToString(data)
}

func canonicalizeMap(m *ast.OrderedMap) map[string]interface{} {
	out := map[string]interface{}{}
	if m == nil {
		return out
	}
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out[k] = canonicalizeValue(v)
	}
	return out
}

func canonicalizeValue(v ast.OptionValue) interface{} {
	switch v.Kind {
	case ast.KindString:
		return v.Str
	case ast.KindNumber:
		return v.Num
	case ast.KindBool:
		return v.Bool
	case ast.KindMap:
		return canonicalizeMap(v.Map)
	case ast.KindSequence:
		seq := make([]interface{}, len(v.Seq))
		for i, e := range v.Seq {
			seq[i] = canonicalizeValue(e)
		}
		return seq
	case ast.KindGlobalVariable:
		return map[string]interface{}{"$global": v.Global.String()}
	default:
		return nil
	}
}
