package filters

import "github.com/edocket/bindery/pdf"

// ExtractChain reads the Filter and DecodeParms entries of a stream
// dictionary into parallel slices ready for Pipeline.Decode.
func ExtractChain(dict *pdf.Dict) ([]string, []*pdf.Dict) {
	var names []string
	var params []*pdf.Dict

	filterObj, ok := dict.Get("Filter")
	if !ok {
		return names, params
	}
	switch f := filterObj.(type) {
	case pdf.Name:
		names = append(names, string(f))
	case pdf.Array:
		for _, item := range f {
			if n, ok := item.(pdf.Name); ok {
				names = append(names, string(n))
			}
		}
	}
	if len(names) == 0 {
		return names, params
	}

	params = make([]*pdf.Dict, len(names))
	if pObj, ok := dict.Get("DecodeParms"); ok {
		switch p := pObj.(type) {
		case *pdf.Dict:
			params[0] = p
		case pdf.Array:
			for i, item := range p {
				if i >= len(params) {
					break
				}
				if d, ok := item.(*pdf.Dict); ok {
					params[i] = d
				}
			}
		}
	}
	return names, params
}
