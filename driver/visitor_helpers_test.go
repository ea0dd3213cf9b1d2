package driver

import "github.com/nchfmt/nch/format"

// anyVisitor decodes a value into a plain Go value (nil, bool, float32/64,
// []byte, int64, string, []any, []kvPair, or map[string]any), for test assertions
// against the driver's Visitor dispatch without hand-decoding wire bytes.
type anyVisitor struct{ out any }

func (v *anyVisitor) VisitNull() error       { v.out = nil; return nil }
func (v *anyVisitor) VisitBool(b bool) error { v.out = b; return nil }
func (v *anyVisitor) VisitF32(f float32) error { v.out = f; return nil }
func (v *anyVisitor) VisitF64(f float64) error { v.out = f; return nil }

func (v *anyVisitor) VisitBytes(b []byte) error {
	v.out = append([]byte(nil), b...)
	return nil
}

func (v *anyVisitor) VisitInt(sign format.Sign, magnitude uint64) error {
	if sign == format.Neg {
		v.out = -int64(magnitude) - 1
	} else {
		v.out = int64(magnitude)
	}

	return nil
}

func (v *anyVisitor) VisitStr(s string) error    { v.out = s; return nil }
func (v *anyVisitor) VisitSymbol(s string) error { v.out = "#" + s; return nil }

func (v *anyVisitor) VisitSeq(count int, items *SeqAccess) error {
	out := make([]any, 0, count)
	for {
		child := &anyVisitor{}
		ok, err := items.Next(child)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		out = append(out, child.out)
	}
	v.out = out

	return nil
}

type kvPair struct{ K, V any }

func (v *anyVisitor) VisitMap(count int, items *MapAccess) error {
	out := make([]kvPair, 0, count)
	for {
		keyV, valV := &anyVisitor{}, &anyVisitor{}
		ok, err := items.Next(keyV, valV)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		out = append(out, kvPair{keyV.out, valV.out})
	}
	v.out = out

	return nil
}

func (v *anyVisitor) VisitRecord(names []string, items *RecordAccess) error {
	out := make(map[string]any, len(names))
	for {
		child := &anyVisitor{}
		name, ok, err := items.Next(child)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		out[name] = child.out
	}
	v.out = out

	return nil
}
