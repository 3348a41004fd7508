package bundle

import (
	"xdao.co/kpack/pack"
)

// Index lists a bundle's objects. It is informational; Import trusts only
// the object entries themselves.
type Index struct {
	Version pack.Uint32
	Objects []Entry
	Labels  []Label
}

type Entry struct {
	CID  pack.String
	Size pack.UnsignedInt
}

// Label names an object for humans.
type Label struct {
	Name pack.String
	CID  pack.String
}

func (x Index) EncodePack(w *pack.Writer) {
	x.Version.EncodePack(w)
	pack.EncodeSequence(w, x.Objects)
	pack.EncodeSequence(w, x.Labels)
}

func (x *Index) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := x.Version.DecodePack(r, d); err != nil {
		return err
	}
	objects, err := pack.DecodeSequence[Entry](r, d)
	if err != nil {
		return err
	}
	labels, err := pack.DecodeSequence[Label](r, d)
	if err != nil {
		return err
	}
	x.Objects, x.Labels = objects, labels
	return nil
}

func (x Index) EncodeJSON() any {
	return map[string]any{
		"version": x.Version.EncodeJSON(),
		"objects": pack.EncodeSequenceJSON(x.Objects),
		"labels":  pack.EncodeSequenceJSON(x.Labels),
	}
}

func (x *Index) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "version", &x.Version, d); err != nil {
		return err
	}
	if x.Objects, err = pack.DecodeSequenceJSON[Entry](obj["objects"], d); err != nil {
		return err
	}
	x.Labels, err = pack.DecodeSequenceJSON[Label](obj["labels"], d)
	return err
}

func (e Entry) EncodePack(w *pack.Writer) {
	e.CID.EncodePack(w)
	e.Size.EncodePack(w)
}

func (e *Entry) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := e.CID.DecodePack(r, d); err != nil {
		return err
	}
	return e.Size.DecodePack(r, d)
}

func (e Entry) EncodeJSON() any {
	return map[string]any{"cid": e.CID.EncodeJSON(), "size": e.Size.EncodeJSON()}
}

func (e *Entry) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "cid", &e.CID, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "size", &e.Size, d)
}

func (l Label) EncodePack(w *pack.Writer) {
	l.Name.EncodePack(w)
	l.CID.EncodePack(w)
}

func (l *Label) DecodePack(r *pack.Reader, d pack.Depth) error {
	if err := l.Name.DecodePack(r, d); err != nil {
		return err
	}
	return l.CID.DecodePack(r, d)
}

func (l Label) EncodeJSON() any {
	return map[string]any{"name": l.Name.EncodeJSON(), "cid": l.CID.EncodeJSON()}
}

func (l *Label) DecodeJSON(node any, d pack.Depth) error {
	obj, err := pack.JSONObject(node)
	if err != nil {
		return err
	}
	if err := pack.DecodeField(obj, "name", &l.Name, d); err != nil {
		return err
	}
	return pack.DecodeField(obj, "cid", &l.CID, d)
}
